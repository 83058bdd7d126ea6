package report

import (
	"fmt"
	"sort"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/jonboulle/clockwork"
)

const (
	firstTodayHour = 7
	lastTodayHour  = 20
)

var simplifiedColumns = []string{
	ColumnTimestamp,
	ColumnSpot,
	ColumnSurf,
	"rating_rating_key",
	"tides_type",
	"tides_height",
	"rating_rating_value",
	"swells_height",
	"swells_period",
	"wind_directionType",
	"weather_temperature",
	"weather_condition",
}

// SimplifiedColumns returns the column set of the simplified view
func SimplifiedColumns() []string {
	out := make([]string, len(simplifiedColumns))
	copy(out, simplifiedColumns)
	return out
}

// ShapeOptions toggles the two report views
type ShapeOptions struct {
	Simplify bool
	Today    bool
}

// Shaped is the projected, filtered and sorted report body
type Shaped struct {
	Columns []string
	Rows    []models.Row
}

// Shaper applies the simplify projection and the today window
type Shaper struct {
	clock clockwork.Clock
}

func NewShaper(clock clockwork.Clock) *Shaper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Shaper{
		clock: clock,
	}
}

// HourLabel renders an hour of day as a 12-hour label, e.g. 18 -> "6pm"
func HourLabel(hour int) string {
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d%s", h, suffix)
}

// Shape returns a *models.ProjectionError when Simplify is set and the table
// lacks a required column.
func (s *Shaper) Shape(table models.CombinedTable, opts ShapeOptions) (Shaped, error) {
	columns := table.Columns
	rows := make([]models.TimedRow, len(table.Rows))
	for i, r := range table.Rows {
		rows[i] = models.TimedRow{At: r.At, Row: r.Row.Clone()}
	}

	if opts.Simplify {
		var err error
		columns, err = s.simplify(table.Columns, rows)
		if err != nil {
			return Shaped{}, err
		}
	}

	if opts.Today {
		rows = s.today(rows)
	} else {
		tieBreak := ColumnSpot
		if !opts.Simplify {
			tieBreak = ColumnSpotID
		}
		sortNewestFirst(rows, tieBreak)
	}

	out := Shaped{Columns: columns, Rows: make([]models.Row, len(rows))}
	for i, r := range rows {
		out.Rows[i] = r.Row
	}
	return out, nil
}

func (s *Shaper) simplify(columns []string, rows []models.TimedRow) ([]string, error) {
	available := models.Table{Columns: columns}
	canSurf := CanDeriveSurf(columns)

	var missing []string
	for _, col := range simplifiedColumns {
		if col == ColumnSurf && canSurf {
			continue
		}
		if !available.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, models.NewProjectionError(missing)
	}

	for i, r := range rows {
		surf := DeriveSurf(r.Row, columns)
		projected := make(models.Row, len(simplifiedColumns))
		for _, col := range simplifiedColumns {
			projected[col] = r.Row[col]
		}
		projected[ColumnSurf] = surf
		rows[i].Row = projected
	}

	return SimplifiedColumns(), nil
}

// today keeps rows between 7am and 8pm inclusive on the current date, relabels
// their timestamp with the hour, and sorts latest hour first. Each row's date
// and hour are read in the zone of its displayed timestamp, and so is today.
func (s *Shaper) today(rows []models.TimedRow) []models.TimedRow {
	now := s.clock.Now()

	kept := make([]models.TimedRow, 0, len(rows))
	for _, r := range rows {
		if r.At.IsZero() {
			continue
		}
		y, m, d := now.In(r.At.Location()).Date()
		ry, rm, rd := r.At.Date()
		if ry != y || rm != m || rd != d {
			continue
		}
		if r.At.Hour() < firstTodayHour || r.At.Hour() > lastTodayHour {
			continue
		}
		r.Row[ColumnTimestamp] = HourLabel(r.At.Hour())
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		hi, hj := kept[i].At.Hour(), kept[j].At.Hour()
		if hi != hj {
			return hi > hj
		}
		return spotKey(kept[i].Row, ColumnSpot) < spotKey(kept[j].Row, ColumnSpot)
	})

	return kept
}

// sortNewestFirst orders by timestamp descending, then by the tie-break column
// ascending. Rows without a parsed timestamp go last.
func sortNewestFirst(rows []models.TimedRow, tieBreak string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.At.IsZero() != b.At.IsZero() {
			return !a.At.IsZero()
		}
		if !a.At.Equal(b.At) {
			return a.At.After(b.At)
		}
		return spotKey(a.Row, tieBreak) < spotKey(b.Row, tieBreak)
	})
}

func spotKey(row models.Row, column string) string {
	return models.FormatValue(row[column])
}
