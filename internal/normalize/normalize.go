// Package normalize flattens decoded Surfline records into scalar rows.
package normalize

import (
	"fmt"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// TimestampLayout renders record timestamps, e.g. "2024-10-01 06PM"
	TimestampLayout = "2006-01-02 03PM"
	// SunlightLayout renders solar event times, e.g. "2024-10-01 06:42 AM"
	SunlightLayout = "2006-01-02 03:04 PM"
)

// Options control how timestamps are rendered
type Options struct {
	// Location is used for records that carry no utcOffset. Defaults to UTC.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

var columnsByCategory = map[models.Category][]string{
	models.CategoryTides:   {"timestamp", "type", "height"},
	models.CategoryWind:    {"timestamp", "speed", "gust", "direction", "directionType", "optimalScore"},
	models.CategoryWeather: {"timestamp", "temperature", "condition", "pressure"},
	models.CategoryRating:  {"timestamp", "rating_key", "rating_value"},
	models.CategorySwells: {
		"timestamp", "probability", "power",
		"height", "period", "impact", "direction", "directionMin", "optimalScore",
	},
	models.CategorySunlight: {"timestamp", "midnight", "dawn", "sunrise", "sunset", "dusk"},
	models.CategoryWave: {
		"timestamp", "probability", "power",
		"surf_min", "surf_max", "surf_plus", "surf_humanRelation", "surf_optimalScore",
	},
	models.CategoryConditions: append(
		[]string{"timestamp", "forecastDay", "human", "observation", "forecaster_name", "forecaster_avatar"},
		append(periodColumns("am"), periodColumns("pm")...)...,
	),
}

// Columns returns the normalized column list for a category
func Columns(category models.Category) ([]string, error) {
	cols, ok := columnsByCategory[category]
	if !ok {
		return nil, fmt.Errorf("unknown forecast category: %q", category)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// Normalize converts one category's records into a table with one row per
// record, in input order. Missing optional fields become nil.
func Normalize(category models.Category, records []models.Record, opts Options) (models.Table, error) {
	cols, err := Columns(category)
	if err != nil {
		return models.Table{}, err
	}

	n := normalizer{loc: opts.location()}
	rows := make([]models.Row, 0, len(records))
	times := make([]time.Time, 0, len(records))
	for i, rec := range records {
		if rec == nil || rec.Category() != category {
			return models.Table{}, fmt.Errorf("record %d is not a %s record", i, category)
		}
		row := n.row(rec)
		applyUnits(row)
		rows = append(rows, row)
		times = append(times, n.instant(rec))
	}

	log.Debug().
		Str("category", category.String()).
		Int("rows", len(rows)).
		Msg("Normalized forecast records")

	return models.Table{Columns: cols, Rows: rows, Times: times}, nil
}

type normalizer struct {
	loc *time.Location
}

func (n normalizer) row(rec models.Record) models.Row {
	row := models.Row{"timestamp": n.timestamp(rec)}

	switch r := rec.(type) {
	case models.TideRecord:
		row["type"] = str(r.Type)
		row["height"] = num(r.Height)
	case models.WindRecord:
		row["speed"] = num(r.Speed)
		row["gust"] = num(r.Gust)
		row["direction"] = num(r.Direction)
		row["directionType"] = str(r.DirectionType)
		row["optimalScore"] = OptimalScore(r.OptimalScore)
	case models.WeatherRecord:
		row["temperature"] = num(r.Temperature)
		row["condition"] = str(r.Condition)
		row["pressure"] = num(r.Pressure)
	case models.RatingRecord:
		rating(row, r)
	case models.SwellsRecord:
		swells(row, r)
	case models.SunlightRecord:
		n.sunlight(row, r)
	case models.WaveRecord:
		wave(row, r)
	case models.ConditionsRecord:
		conditions(row, r)
	}
	return row
}

// instant is the record time in the record's own offset when it has one
func (n normalizer) instant(rec models.Record) time.Time {
	ts := rec.Time()
	if ts == nil {
		return time.Time{}
	}
	return time.Unix(*ts, 0).In(n.zone(rec))
}

func (n normalizer) timestamp(rec models.Record) any {
	at := n.instant(rec)
	if at.IsZero() {
		return nil
	}
	return at.Format(TimestampLayout)
}

func (n normalizer) clock(rec models.Record, ts *int64) any {
	if ts == nil {
		return nil
	}
	return time.Unix(*ts, 0).In(n.zone(rec)).Format(SunlightLayout)
}

func (n normalizer) zone(rec models.Record) *time.Location {
	if off := rec.Offset(); off != nil {
		return time.FixedZone("", int(*off*3600))
	}
	return n.loc
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func num(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolean(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func integer(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
