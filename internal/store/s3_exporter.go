package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bbernstein/duckdive/internal/export"
	"github.com/bbernstein/duckdive/internal/models"
	"github.com/rs/zerolog/log"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads report CSVs to a bucket
type S3Exporter struct {
	client     S3Client
	bucketName string
}

func NewS3Exporter(client S3Client, bucketName string) *S3Exporter {
	return &S3Exporter{
		client:     client,
		bucketName: bucketName,
	}
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri needs a bucket and key: %q", uri)
	}
	return bucket, key, nil
}

// DefaultKey is where a report is exported when no key is given
func DefaultKey(report *models.Report) string {
	return fmt.Sprintf("reports/%s/%s.csv", report.GeneratedAt.UTC().Format("2006-01-02"), report.ID)
}

// ExportCSV uploads the report as CSV under key
func (e *S3Exporter) ExportCSV(ctx context.Context, key string, report *models.Report) error {
	if e.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	body, err := export.CSVBytes(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().
		Str("bucket", e.bucketName).
		Str("key", key).
		Int("rows", len(report.Rows)).
		Msg("Exported report to S3")
	return nil
}
