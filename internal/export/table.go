package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bbernstein/duckdive/internal/models"
)

// WriteTable prints up to limit rows as aligned columns followed by the
// report summary. A limit of zero or less prints every row.
func WriteTable(w io.Writer, report *models.Report, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, strings.Join(report.Columns, "\t")); err != nil {
		return err
	}

	records := report.Records()
	shown := records
	if limit > 0 && len(records) > limit {
		shown = records[:limit]
	}
	for _, rec := range shown {
		if _, err := fmt.Fprintln(tw, strings.Join(rec, "\t")); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := report.Summary()
	if len(shown) < len(records) {
		summary = fmt.Sprintf("%s (showing first %d)", summary, len(shown))
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// WriteErrors lists the spot/category pairs that were left out of the report
func WriteErrors(w io.Writer, errs []models.ReportError) error {
	for _, e := range errs {
		if _, err := fmt.Fprintf(w, "error: spot %s, %s: %s\n", e.SpotID, e.Category, e.Message); err != nil {
			return err
		}
	}
	return nil
}
