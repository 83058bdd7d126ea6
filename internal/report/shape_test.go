package report

import (
	"testing"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullColumns = []string{
	"timestamp", "spot_id", "spot",
	"wave_surf_min", "wave_surf_max",
	"rating_rating_key", "rating_rating_value",
	"tides_type", "tides_height",
	"swells_height", "swells_period",
	"wind_directionType",
	"weather_temperature", "weather_condition",
}

func fullRow(at time.Time, spot string) models.TimedRow {
	row := models.Row{}
	for _, c := range fullColumns {
		row[c] = nil
	}
	row["timestamp"] = at.Format("2006-01-02 03PM")
	row["spot_id"] = "id-" + spot
	row["spot"] = spot
	row["wave_surf_max"] = 4.0
	row["weather_temperature"] = "65 F"
	return models.TimedRow{At: at, Row: row}
}

func TestHourLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want string
	}{
		{0, "12am"},
		{1, "1am"},
		{11, "11am"},
		{12, "12pm"},
		{13, "1pm"},
		{18, "6pm"},
		{23, "11pm"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HourLabel(tt.hour))
		})
	}
}

func TestShapeSimplify(t *testing.T) {
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	table := models.CombinedTable{
		Columns: fullColumns,
		Rows:    []models.TimedRow{fullRow(day.Add(9*time.Hour), "Blacks")},
	}

	shaper := NewShaper(clockwork.NewFakeClockAt(day))
	shaped, err := shaper.Shape(table, ShapeOptions{Simplify: true})
	require.NoError(t, err)

	assert.Equal(t, SimplifiedColumns(), shaped.Columns)
	require.Len(t, shaped.Rows, 1)
	assert.Equal(t, "3-4ft", shaped.Rows[0]["wave_surf"])
	assert.Equal(t, "Blacks", shaped.Rows[0]["spot"])
	assert.NotContains(t, shaped.Rows[0], "spot_id")
	assert.Len(t, shaped.Rows[0], len(SimplifiedColumns()))

	// the input table is left untouched
	assert.Contains(t, table.Rows[0].Row, "spot_id")
	assert.NotContains(t, table.Rows[0].Row, "wave_surf")
}

func TestShapeSimplifyMissingColumn(t *testing.T) {
	var columns []string
	for _, c := range fullColumns {
		if c != "weather_temperature" {
			columns = append(columns, c)
		}
	}

	shaper := NewShaper(clockwork.NewFakeClock())
	_, err := shaper.Shape(models.CombinedTable{Columns: columns}, ShapeOptions{Simplify: true})

	var projErr *models.ProjectionError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, []string{"weather_temperature"}, projErr.Missing)
}

func TestShapeSimplifyMissingWave(t *testing.T) {
	var columns []string
	for _, c := range fullColumns {
		if c != "wave_surf_min" && c != "wave_surf_max" {
			columns = append(columns, c)
		}
	}

	_, err := NewShaper(nil).Shape(models.CombinedTable{Columns: columns}, ShapeOptions{Simplify: true})

	var projErr *models.ProjectionError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, []string{"wave_surf"}, projErr.Missing)
}

func TestShapeTodayWindow(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	now := time.Date(2024, 7, 1, 12, 30, 0, 0, la)
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, la)

	var rows []models.TimedRow
	for _, h := range []int{6, 7, 13, 20, 21} {
		rows = append(rows, fullRow(day.Add(time.Duration(h)*time.Hour), "Scripps"))
	}
	rows = append(rows, fullRow(day.Add(13*time.Hour), "Blacks"))
	rows = append(rows, fullRow(day.Add(24*time.Hour+9*time.Hour), "Scripps"))
	rows = append(rows, models.TimedRow{Row: models.Row{"timestamp": nil, "spot": "Nowhere"}})

	shaper := NewShaper(clockwork.NewFakeClockAt(now))
	shaped, err := shaper.Shape(models.CombinedTable{Columns: fullColumns, Rows: rows}, ShapeOptions{Today: true})
	require.NoError(t, err)

	var got [][2]any
	for _, r := range shaped.Rows {
		got = append(got, [2]any{r["timestamp"], r["spot"]})
	}
	assert.Equal(t, [][2]any{
		{"8pm", "Scripps"},
		{"1pm", "Blacks"},
		{"1pm", "Scripps"},
		{"7am", "Scripps"},
	}, got)
	assert.Equal(t, fullColumns, shaped.Columns)
}

func TestShapeWithoutTodaySortsNewestFirst(t *testing.T) {
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.TimedRow{
		fullRow(day.Add(6*time.Hour), "Scripps"),
		fullRow(day.Add(9*time.Hour), "Scripps"),
		fullRow(day.Add(9*time.Hour), "Blacks"),
		{Row: models.Row{"timestamp": nil, "spot": "Aaa", "spot_id": "aaa"}},
	}
	// spot ids sort the other way round from display names
	rows[1].Row["spot_id"] = "a-scripps"
	rows[2].Row["spot_id"] = "z-blacks"

	table := models.CombinedTable{Columns: fullColumns, Rows: rows}
	shaper := NewShaper(clockwork.NewFakeClockAt(day))

	simplified, err := shaper.Shape(table, ShapeOptions{Simplify: true})
	require.NoError(t, err)
	require.Len(t, simplified.Rows, 4)
	assert.Equal(t, "Blacks", simplified.Rows[0]["spot"])
	assert.Equal(t, "Scripps", simplified.Rows[1]["spot"])
	assert.Equal(t, "2024-07-01 06AM", simplified.Rows[2]["timestamp"])
	assert.Equal(t, "Aaa", simplified.Rows[3]["spot"])

	raw, err := shaper.Shape(table, ShapeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a-scripps", raw.Rows[0]["spot_id"])
	assert.Equal(t, "z-blacks", raw.Rows[1]["spot_id"])
	assert.Equal(t, fullColumns, raw.Columns)
}

func TestShapeTodayReadsDateInRowZone(t *testing.T) {
	hst := time.FixedZone("", -10*3600)
	utc := time.Date(2024, 7, 2, 5, 0, 0, 0, time.UTC) // 7pm Jul 1 in Hawaii

	rows := []models.TimedRow{
		fullRow(time.Date(2024, 7, 1, 19, 0, 0, 0, hst), "Pipeline"),
		fullRow(time.Date(2024, 7, 2, 8, 0, 0, 0, hst), "Pipeline"),
		fullRow(time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC), "Blacks"),
	}

	shaped, err := NewShaper(clockwork.NewFakeClockAt(utc)).Shape(models.CombinedTable{Columns: fullColumns, Rows: rows}, ShapeOptions{Today: true})
	require.NoError(t, err)

	var got [][2]any
	for _, r := range shaped.Rows {
		got = append(got, [2]any{r["timestamp"], r["spot"]})
	}
	assert.Equal(t, [][2]any{
		{"7pm", "Pipeline"},
		{"8am", "Blacks"},
	}, got)
}
