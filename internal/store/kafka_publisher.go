package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka-go's Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// RowMessage is the JSON value published for each report row
type RowMessage struct {
	ReportID    string            `json:"reportId"`
	Index       int               `json:"index"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Cells       map[string]string `json:"cells"`
}

// KafkaPublisher publishes every report row as one message, keyed by report
// id so a report's rows land on one partition in order
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}, topic)
}

func NewKafkaPublisherWithWriter(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
	}
}

// Publish writes all rows in a single WriteMessages call
func (p *KafkaPublisher) Publish(ctx context.Context, report *models.Report) error {
	if len(report.Rows) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(report.Rows))
	for i, rec := range report.Records() {
		cells := make(map[string]string, len(report.Columns))
		for k, col := range report.Columns {
			cells[col] = rec[k]
		}

		value, err := json.Marshal(RowMessage{
			ReportID:    report.ID,
			Index:       i,
			GeneratedAt: report.GeneratedAt,
			Cells:       cells,
		})
		if err != nil {
			return fmt.Errorf("serialize report row: %w", err)
		}

		msgs = append(msgs, kafkago.Message{
			Key:   []byte(report.ID),
			Value: value,
			Headers: []kafkago.Header{
				{Key: "spot", Value: []byte(cells["spot"])},
				{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing report rows: %w", err)
	}

	log.Debug().
		Str("topic", p.topic).
		Str("report_id", report.ID).
		Int("messages", len(msgs)).
		Msg("Published report to Kafka")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
