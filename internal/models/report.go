package models

import (
	"fmt"
	"time"
)

// ReportError records one failed spot/category fetch without stopping the run
type ReportError struct {
	SpotID   string   `json:"spotId"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

func (e ReportError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.SpotID, e.Category, e.Message)
}

// Report is the shaped output of one aggregation run
type Report struct {
	ID          string        `json:"id"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Columns     []string      `json:"columns"`
	Rows        []Row         `json:"rows"`
	Errors      []ReportError `json:"errors"`
}

func (r *Report) Summary() string {
	return fmt.Sprintf("%d rows x %d columns", len(r.Rows), len(r.Columns))
}

// Records returns the rows as ordered string cells, nil rendered as ""
func (r *Report) Records() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(r.Columns))
		for j, col := range r.Columns {
			cells[j] = FormatValue(row[col])
		}
		out[i] = cells
	}
	return out
}
