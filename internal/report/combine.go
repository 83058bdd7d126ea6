package report

import (
	"time"

	"github.com/bbernstein/duckdive/internal/models"
)

const (
	ColumnSurf    = "wave_surf"
	columnSurfMin = "wave_surf_min"
	columnSurfMax = "wave_surf_max"
)

// SpotNamer resolves a spot id to its display name
type SpotNamer interface {
	Name(spotID string) string
}

// Combine concatenates spot tables in the given order, adds the spot display
// name, and attaches each row's instant. Tables without Times have their
// timestamps parsed in loc.
func Combine(tables []models.Table, namer SpotNamer, loc *time.Location) models.CombinedTable {
	columns := []string{ColumnTimestamp, ColumnSpotID, ColumnSpot}
	seen := map[string]bool{ColumnTimestamp: true, ColumnSpotID: true, ColumnSpot: true}
	for _, t := range tables {
		for _, col := range t.Columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	var rows []models.TimedRow
	for _, t := range tables {
		for i, src := range t.Rows {
			row := make(models.Row, len(columns))
			for _, col := range columns {
				row[col] = src[col]
			}

			spotID, _ := src.String(ColumnSpotID)
			row[ColumnSpot] = spotName(namer, spotID)

			at, ok := t.Time(i)
			if s, isString := src.String(ColumnTimestamp); !ok && isString {
				at, _ = ParseTimestamp(s, loc)
			}
			rows = append(rows, models.TimedRow{At: at, Row: row})
		}
	}

	return models.CombinedTable{Columns: columns, Rows: rows}
}

func spotName(namer SpotNamer, spotID string) string {
	if namer == nil {
		return spotID
	}
	if name := namer.Name(spotID); name != "" {
		return name
	}
	return spotID
}

// CanDeriveSurf reports whether the columns carry enough wave data for DeriveSurf
func CanDeriveSurf(columns []string) bool {
	t := models.Table{Columns: columns}
	return (t.HasColumn(columnSurfMin) && t.HasColumn(columnSurfMax)) || t.HasColumn(ColumnSurf)
}

// DeriveSurf renders the display surf range, e.g. "3-4ft". It is a display
// heuristic: a missing minimum is shown as one foot below the maximum.
func DeriveSurf(row models.Row, columns []string) any {
	t := models.Table{Columns: columns}

	if t.HasColumn(columnSurfMin) && t.HasColumn(columnSurfMax) {
		return surfRange(row[columnSurfMin], row[columnSurfMax], nil)
	}

	if t.HasColumn(ColumnSurf) {
		switch v := row[ColumnSurf].(type) {
		case nil:
			return nil
		case map[string]any:
			return surfRange(v["min"], v["max"], 0.0)
		default:
			return models.FormatValue(v)
		}
	}

	return nil
}

// surfRange formats lo-hi. When hi is absent, fallbackHi is used; a nil
// fallback means there is nothing to show.
func surfRange(lo, hi, fallbackHi any) any {
	if hi == nil {
		if fallbackHi == nil {
			return nil
		}
		hi = fallbackHi
	}
	if lo == nil {
		if f, ok := hi.(float64); ok {
			lo = f - 1
		} else {
			lo = hi
		}
	}
	return models.FormatValue(lo) + "-" + models.FormatValue(hi) + "ft"
}
