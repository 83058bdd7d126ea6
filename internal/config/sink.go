package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// SinkConfig holds settings shared by the report sinks
type SinkConfig struct {
	// DynamoDB settings
	BatchSize       int
	MaxBatchRetries int
	RecordTTLDays   int

	// Console output
	PreviewRows int

	// Postgres settings
	PostgresTable string

	// Kafka settings; no brokers disables the Kafka sink
	KafkaBrokers []string
	KafkaTopic   string
}

const (
	// Default values
	defaultBatchSize       = 25
	defaultMaxBatchRetries = 3
	defaultRecordTTLDays   = 7
	defaultPreviewRows     = 50
	defaultPostgresTable   = "surfline_data"
	defaultKafkaTopic      = "surfline-report-rows"
)

// GetSinkConfig returns the sink configuration from environment variables or defaults
func GetSinkConfig() *SinkConfig {
	config := &SinkConfig{
		BatchSize:       getEnvInt("SINK_BATCH_SIZE", defaultBatchSize),
		MaxBatchRetries: getEnvInt("SINK_MAX_BATCH_RETRIES", defaultMaxBatchRetries),
		RecordTTLDays:   getEnvInt("SINK_RECORD_TTL_DAYS", defaultRecordTTLDays),
		PreviewRows:     getEnvInt("PREVIEW_ROWS", defaultPreviewRows),
		PostgresTable:   getEnvOrDefault("POSTGRES_TABLE", defaultPostgresTable),
		KafkaBrokers:    parseBrokers(getEnvOrDefault("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnvOrDefault("KAFKA_TOPIC", defaultKafkaTopic),
	}

	// DynamoDB caps BatchWriteItem at 25 items
	if config.BatchSize <= 0 || config.BatchSize > defaultBatchSize {
		config.BatchSize = defaultBatchSize
	}
	if config.MaxBatchRetries < 1 {
		config.MaxBatchRetries = 1
	}

	log.Debug().
		Int("BatchSize", config.BatchSize).
		Int("MaxBatchRetries", config.MaxBatchRetries).
		Int("RecordTTLDays", config.RecordTTLDays).
		Int("PreviewRows", config.PreviewRows).
		Str("PostgresTable", config.PostgresTable).
		Strs("KafkaBrokers", config.KafkaBrokers).
		Str("KafkaTopic", config.KafkaTopic).
		Msg("Sink configuration loaded")

	return config
}

func (c *SinkConfig) GetRecordTTL() time.Duration {
	return time.Duration(c.RecordTTLDays) * 24 * time.Hour
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
