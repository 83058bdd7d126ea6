package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bbernstein/duckdive/internal/config"
	"github.com/bbernstein/duckdive/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DynamoDBClient defines the DynamoDB operations the report store needs
type DynamoDBClient interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// RowItem is one report row as stored in DynamoDB. Cells are kept as display
// strings keyed by column name.
type RowItem struct {
	ReportID    string            `dynamodbav:"reportId"`
	RowKey      string            `dynamodbav:"rowKey"`
	Columns     []string          `dynamodbav:"columns"`
	Cells       map[string]string `dynamodbav:"cells"`
	GeneratedAt int64             `dynamodbav:"generatedAt"`
	TTL         int64             `dynamodbav:"ttl"`
}

// HeaderItem describes a whole report. It is written after the rows, so a
// report is only found once all of its rows are stored.
type HeaderItem struct {
	ReportID    string               `dynamodbav:"reportId"`
	RowKey      string               `dynamodbav:"rowKey"`
	Columns     []string             `dynamodbav:"columns"`
	Errors      []models.ReportError `dynamodbav:"errors"`
	RowCount    int                  `dynamodbav:"rowCount"`
	GeneratedAt int64                `dynamodbav:"generatedAt"`
	TTL         int64                `dynamodbav:"ttl"`
}

// headerKey sorts ahead of the zero padded row keys
const headerKey = "#header"

// DynamoReportStore bulk-loads report rows into a DynamoDB table keyed by
// (reportId, rowKey)
type DynamoReportStore struct {
	client    DynamoDBClient
	tableName string
	config    *config.SinkConfig
	clock     clockwork.Clock
	// sleep between batch retries, replaced in tests
	backoff func(retry int) time.Duration
}

func NewDynamoReportStore(client DynamoDBClient, tableName string, sinkConfig *config.SinkConfig) *DynamoReportStore {
	if sinkConfig == nil {
		sinkConfig = config.GetSinkConfig()
	}
	return &DynamoReportStore{
		client:    client,
		tableName: tableName,
		config:    sinkConfig,
		clock:     clockwork.NewRealClock(),
		backoff: func(retry int) time.Duration {
			return time.Duration(1<<retry) * 100 * time.Millisecond
		},
	}
}

func rowKey(i int) string {
	return fmt.Sprintf("%06d", i)
}

// SaveReport writes every row of the report in batches, then the header item
// carrying the columns and per-spot errors
func (s *DynamoReportStore) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	now := s.clock.Now().Unix()
	ttl := now + int64(s.config.GetRecordTTL().Seconds())
	records := report.Records()

	batchSize := s.config.BatchSize
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		var writeRequests []types.WriteRequest
		for j := i; j < end; j++ {
			cells := make(map[string]string, len(report.Columns))
			for k, col := range report.Columns {
				cells[col] = records[j][k]
			}

			item, err := attributevalue.MarshalMap(RowItem{
				ReportID:    report.ID,
				RowKey:      rowKey(j),
				Columns:     report.Columns,
				Cells:       cells,
				GeneratedAt: report.GeneratedAt.Unix(),
				TTL:         ttl,
			})
			if err != nil {
				return fmt.Errorf("marshaling report row: %w", err)
			}

			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{
					Item: item,
				},
			})
		}

		if err := s.writeBatch(ctx, writeRequests); err != nil {
			return err
		}
	}

	header, err := attributevalue.MarshalMap(HeaderItem{
		ReportID:    report.ID,
		RowKey:      headerKey,
		Columns:     report.Columns,
		Errors:      report.Errors,
		RowCount:    len(records),
		GeneratedAt: report.GeneratedAt.Unix(),
		TTL:         ttl,
	})
	if err != nil {
		return fmt.Errorf("marshaling report header: %w", err)
	}
	if err := s.writeBatch(ctx, []types.WriteRequest{{PutRequest: &types.PutRequest{Item: header}}}); err != nil {
		return err
	}

	log.Debug().
		Str("report_id", report.ID).
		Int("rows", len(records)).
		Int("errors", len(report.Errors)).
		Msg("Saved report to DynamoDB")

	return nil
}

// writeBatch retries the whole batch and any unprocessed items with exponential
// backoff. It always makes at least one attempt.
func (s *DynamoReportStore) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	attempts := s.config.MaxBatchRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	pending := requests
	for retry := 0; retry < attempts; retry++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: pending,
			},
		})
		switch {
		case err != nil:
			lastErr = err
		case out != nil && len(out.UnprocessedItems[s.tableName]) > 0:
			pending = out.UnprocessedItems[s.tableName]
			lastErr = fmt.Errorf("%d items unprocessed", len(pending))
		default:
			return nil
		}
		if retry == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff(retry)):
		}
	}
	return fmt.Errorf("batch writing report items after %d attempts: %w", attempts, lastErr)
}

// LoadReport reads a stored report back in row order. Rows come back as
// display strings. It returns nil when the report does not exist.
func (s *DynamoReportStore) LoadReport(ctx context.Context, reportID string) (*models.Report, error) {
	report := &models.Report{ID: reportID}
	found := false

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("reportId = :id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":id": &types.AttributeValueMemberS{Value: reportID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("querying report rows: %w", err)
		}

		for _, raw := range out.Items {
			if key, ok := raw["rowKey"].(*types.AttributeValueMemberS); ok && key.Value == headerKey {
				var header HeaderItem
				if err := attributevalue.UnmarshalMap(raw, &header); err != nil {
					return nil, fmt.Errorf("unmarshaling report header: %w", err)
				}
				report.Columns = header.Columns
				report.Errors = header.Errors
				report.GeneratedAt = time.Unix(header.GeneratedAt, 0).UTC()
				found = true
				continue
			}

			var item RowItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshaling report row: %w", err)
			}
			if report.Columns == nil {
				report.Columns = item.Columns
				report.GeneratedAt = time.Unix(item.GeneratedAt, 0).UTC()
			}
			row := make(models.Row, len(item.Cells))
			for k, v := range item.Cells {
				row[k] = v
			}
			report.Rows = append(report.Rows, row)
			found = true
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if !found {
		return nil, nil
	}
	return report, nil
}
