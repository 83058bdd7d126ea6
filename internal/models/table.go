package models

import "time"

// Row maps a column name to a scalar: nil, string, float64, int64 or bool
type Row map[string]any

// Clone returns a shallow copy; values are scalars so this is a full copy
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the column's value when it holds a string
func (r Row) String(column string) (string, bool) {
	s, ok := r[column].(string)
	return s, ok
}

// Table is an ordered set of rows sharing one column list
type Table struct {
	Columns []string
	Rows    []Row
	// Times, when set, holds each row's instant in the zone its timestamp was
	// rendered in. A zero entry means the row has no timestamp.
	Times []time.Time
}

// Time returns the instant of row i when the table carries one
func (t Table) Time(i int) (time.Time, bool) {
	if i < 0 || i >= len(t.Times) || t.Times[i].IsZero() {
		return time.Time{}, false
	}
	return t.Times[i], true
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns every row's value for the named column, in row order
func (t Table) Column(name string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// TimedRow is a combined row with its instant
type TimedRow struct {
	// At is in the zone the row's timestamp is displayed in, and zero when
	// the row has no usable timestamp
	At  time.Time
	Row Row
}

// CombinedTable is every spot's merged table concatenated in spot order
type CombinedTable struct {
	Columns []string
	Rows    []TimedRow
}

func (t CombinedTable) HasColumn(name string) bool {
	return Table{Columns: t.Columns}.HasColumn(name)
}
