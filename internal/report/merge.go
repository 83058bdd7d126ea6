package report

import (
	"sort"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/internal/normalize"
)

const (
	ColumnTimestamp = "timestamp"
	ColumnSpotID    = "spot_id"
	ColumnSpot      = "spot"
)

// CategoryTable is one category's normalized table for a single spot
type CategoryTable struct {
	Category models.Category
	Table    models.Table
}

// ParseTimestamp reads either normalized timestamp layout in loc
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{normalize.TimestampLayout, normalize.SunlightLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MergeSpot outer-joins a spot's category tables on timestamp. Every column
// except timestamp is prefixed with its category. When one category repeats a
// timestamp the first row wins. Rows are ordered by time, so the result does
// not depend on the order categories were fetched in. Row instants come from
// the tables' Times, or from parsing the timestamp in loc when a table has
// none. The bool is false when there are no tables to merge.
func MergeSpot(spotID string, tables []CategoryTable, loc *time.Location) (models.Table, bool) {
	if len(tables) == 0 {
		return models.Table{}, false
	}

	columns := []string{ColumnTimestamp, ColumnSpotID}
	for _, ct := range tables {
		for _, col := range ct.Table.Columns {
			if col == ColumnTimestamp || col == ColumnSpotID {
				continue
			}
			columns = append(columns, prefixed(ct.Category, col))
		}
	}

	ordered := make([]CategoryTable, len(tables))
	copy(ordered, tables)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Category < ordered[j].Category
	})

	var rows []models.Row
	var times []time.Time
	byTimestamp := make(map[string]int)
	filled := make(map[string]map[models.Category]bool)

	for _, ct := range ordered {
		for k, src := range ct.Table.Rows {
			ts, hasTS := src[ColumnTimestamp].(string)

			var row models.Row
			switch idx, seen := byTimestamp[ts]; {
			case !hasTS:
				row = models.Row{ColumnTimestamp: src[ColumnTimestamp], ColumnSpotID: spotID}
				rows = append(rows, row)
				times = append(times, time.Time{})
			case seen:
				if filled[ts][ct.Category] {
					continue
				}
				row = rows[idx]
				if times[idx].IsZero() {
					times[idx] = rowTime(ct.Table, k, ts, loc)
				}
			default:
				row = models.Row{ColumnTimestamp: ts, ColumnSpotID: spotID}
				byTimestamp[ts] = len(rows)
				filled[ts] = make(map[models.Category]bool)
				rows = append(rows, row)
				times = append(times, rowTime(ct.Table, k, ts, loc))
			}
			if hasTS {
				filled[ts][ct.Category] = true
			}

			for col, v := range src {
				if col == ColumnTimestamp || col == ColumnSpotID {
					continue
				}
				row[prefixed(ct.Category, col)] = v
			}
		}
	}

	for _, row := range rows {
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				row[col] = nil
			}
		}
	}

	sortByTime(rows, times)

	return models.Table{Columns: columns, Rows: rows, Times: times}, true
}

// rowTime is the instant of row i of t, falling back to parsing ts in loc
func rowTime(t models.Table, i int, ts string, loc *time.Location) time.Time {
	if at, ok := t.Time(i); ok {
		return at
	}
	at, _ := ParseTimestamp(ts, loc)
	return at
}

func prefixed(category models.Category, column string) string {
	return string(category) + "_" + column
}

// sortByTime orders rows and their instants ascending by instant. Rows without
// one keep their relative order at the end.
func sortByTime(rows []models.Row, times []time.Time) {
	type keyed struct {
		at  time.Time
		row models.Row
	}
	keys := make([]keyed, len(rows))
	for i, r := range rows {
		keys[i] = keyed{at: times[i], row: r}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.at.IsZero() != b.at.IsZero() {
			return !a.at.IsZero()
		}
		return !a.at.IsZero() && a.at.Before(b.at)
	})

	for i, k := range keys {
		rows[i] = k.row
		times[i] = k.at
	}
}
