package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PostgresStore bulk-loads reports into an analytical table. Every report
// column becomes a TEXT column; report_id ties rows from one run together.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// OpenPostgres connects using a lib/pq connection string or URL
func OpenPostgres(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return NewPostgresStore(db, table), nil
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{
		db:    db,
		table: table,
	}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func createTableSQL(table string, columns []string) string {
	defs := []string{"report_id TEXT NOT NULL"}
	for _, col := range columns {
		defs = append(defs, pq.QuoteIdentifier(col)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pq.QuoteIdentifier(table), strings.Join(defs, ", "))
}

func addColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT", pq.QuoteIdentifier(table), pq.QuoteIdentifier(column))
}

// copyValues converts a row to COPY arguments; empty cells load as NULL
func copyValues(reportID string, columns []string, row models.Row) []any {
	values := make([]any, 0, len(columns)+1)
	values = append(values, reportID)
	for _, col := range columns {
		if row[col] == nil {
			values = append(values, nil)
			continue
		}
		values = append(values, models.FormatValue(row[col]))
	}
	return values
}

// Load creates or widens the table as needed and copies every row in one transaction
func (s *PostgresStore) Load(ctx context.Context, report *models.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Error rolling back postgres load")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, createTableSQL(s.table, report.Columns)); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	for _, col := range report.Columns {
		if _, err = tx.ExecContext(ctx, addColumnSQL(s.table, col)); err != nil {
			return fmt.Errorf("adding column %s: %w", col, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(s.table, append([]string{"report_id"}, report.Columns...)...))
	if err != nil {
		return fmt.Errorf("preparing copy: %w", err)
	}
	for _, row := range report.Rows {
		if _, err = stmt.ExecContext(ctx, copyValues(report.ID, report.Columns, row)...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copying row: %w", err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flushing copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("closing copy: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing load: %w", err)
	}

	log.Debug().
		Str("table", s.table).
		Str("report_id", report.ID).
		Int("rows", len(report.Rows)).
		Msg("Loaded report into postgres")
	return nil
}
