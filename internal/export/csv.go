// Package export renders a report as CSV or as a console table.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/bbernstein/duckdive/internal/models"
)

// WriteCSV writes a header row followed by every report row
func WriteCSV(w io.Writer, report *models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(report.Records()); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}

// CSVBytes renders the report as CSV in memory
func CSVBytes(report *models.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
