package report

import (
	"testing"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tidesTable(timestamps ...string) CategoryTable {
	t := models.Table{Columns: []string{"timestamp", "type", "height"}}
	for i, ts := range timestamps {
		t.Rows = append(t.Rows, models.Row{"timestamp": ts, "type": "NORMAL", "height": float64(i)})
	}
	return CategoryTable{Category: models.CategoryTides, Table: t}
}

func windTable(timestamps ...string) CategoryTable {
	t := models.Table{Columns: []string{"timestamp", "speed", "directionType"}}
	for i, ts := range timestamps {
		t.Rows = append(t.Rows, models.Row{"timestamp": ts, "speed": float64(10 + i), "directionType": "Onshore"})
	}
	return CategoryTable{Category: models.CategoryWind, Table: t}
}

func TestMergeSpotNoTables(t *testing.T) {
	_, ok := MergeSpot("A", nil, nil)
	assert.False(t, ok)
}

func TestMergeSpotPrefixesColumns(t *testing.T) {
	merged, ok := MergeSpot("A", []CategoryTable{tidesTable("2024-07-01 06AM"), windTable("2024-07-01 06AM")}, nil)
	require.True(t, ok)

	assert.Equal(t, []string{
		"timestamp", "spot_id",
		"tides_type", "tides_height",
		"wind_speed", "wind_directionType",
	}, merged.Columns)
	require.Len(t, merged.Rows, 1)
	assert.Equal(t, models.Row{
		"timestamp":          "2024-07-01 06AM",
		"spot_id":            "A",
		"tides_type":         "NORMAL",
		"tides_height":       0.0,
		"wind_speed":         10.0,
		"wind_directionType": "Onshore",
	}, merged.Rows[0])
}

func TestMergeSpotOuterJoinCompleteness(t *testing.T) {
	tides := tidesTable("2024-07-01 06AM", "2024-07-01 07AM")
	wind := windTable("2024-07-01 07AM", "2024-07-01 08AM", "2024-07-01 09AM")

	merged, ok := MergeSpot("A", []CategoryTable{tides, wind}, nil)
	require.True(t, ok)

	counts := make(map[string]int)
	for _, row := range merged.Rows {
		ts, _ := row.String("timestamp")
		counts[ts]++
		for _, col := range merged.Columns {
			assert.Contains(t, row, col)
		}
	}
	assert.Equal(t, map[string]int{
		"2024-07-01 06AM": 1,
		"2024-07-01 07AM": 1,
		"2024-07-01 08AM": 1,
		"2024-07-01 09AM": 1,
	}, counts)

	assert.Equal(t, "2024-07-01 06AM", merged.Rows[0]["timestamp"])
	assert.Nil(t, merged.Rows[0]["wind_speed"])
	assert.Nil(t, merged.Rows[3]["tides_type"])
	assert.Equal(t, 10.0, merged.Rows[1]["wind_speed"])
	assert.Equal(t, 1.0, merged.Rows[1]["tides_height"])
}

func TestMergeSpotIsCommutative(t *testing.T) {
	tides := tidesTable("2024-07-01 11PM", "2024-07-02 12AM", "2024-07-01 06AM")
	wind := windTable("2024-07-02 12AM", "2024-07-01 01PM")

	ab, ok := MergeSpot("A", []CategoryTable{tides, wind}, nil)
	require.True(t, ok)
	ba, ok := MergeSpot("A", []CategoryTable{wind, tides}, nil)
	require.True(t, ok)

	assert.ElementsMatch(t, ab.Columns, ba.Columns)
	if diff := cmp.Diff(ab.Rows, ba.Rows); diff != "" {
		t.Errorf("merge depends on category order (-ab +ba):\n%s", diff)
	}

	var order []any
	for _, r := range ab.Rows {
		order = append(order, r["timestamp"])
	}
	assert.Equal(t, []any{"2024-07-01 06AM", "2024-07-01 01PM", "2024-07-01 11PM", "2024-07-02 12AM"}, order)
}

func TestMergeSpotDuplicateTimestampFirstWins(t *testing.T) {
	tides := tidesTable("2024-07-01 06AM", "2024-07-01 06AM")

	merged, ok := MergeSpot("A", []CategoryTable{tides}, nil)
	require.True(t, ok)
	require.Len(t, merged.Rows, 1)
	assert.Equal(t, 0.0, merged.Rows[0]["tides_height"])
}

func TestMergeSpotKeepsRowsWithoutTimestamp(t *testing.T) {
	tides := tidesTable("2024-07-01 06AM")
	tides.Table.Rows = append(tides.Table.Rows, models.Row{"timestamp": nil, "type": "LOW", "height": 1.5})

	merged, ok := MergeSpot("A", []CategoryTable{tides, windTable("2024-07-01 06AM")}, nil)
	require.True(t, ok)
	require.Len(t, merged.Rows, 2)
	assert.Nil(t, merged.Rows[1]["timestamp"])
	assert.Equal(t, "LOW", merged.Rows[1]["tides_type"])
	assert.Nil(t, merged.Rows[1]["wind_speed"])
}

func TestMergeSpotEmptyCategory(t *testing.T) {
	merged, ok := MergeSpot("A", []CategoryTable{tidesTable()}, nil)
	require.True(t, ok)
	assert.Empty(t, merged.Rows)
	assert.Equal(t, []string{"timestamp", "spot_id", "tides_type", "tides_height"}, merged.Columns)
}

func TestParseTimestamp(t *testing.T) {
	at, ok := ParseTimestamp("2024-07-01 06PM", nil)
	require.True(t, ok)
	assert.Equal(t, 18, at.Hour())

	at, ok = ParseTimestamp("2024-07-01 05:41 AM", nil)
	require.True(t, ok)
	assert.Equal(t, 41, at.Minute())

	_, ok = ParseTimestamp("yesterday", nil)
	assert.False(t, ok)
}

func TestMergeSpotKeepsInstants(t *testing.T) {
	pdt := time.FixedZone("", -7*3600)
	early := time.Date(2024, 7, 1, 23, 0, 0, 0, pdt)
	late := time.Date(2024, 7, 2, 0, 0, 0, 0, pdt)

	tides := tidesTable("2024-07-02 12AM", "2024-07-01 11PM")
	tides.Table.Times = []time.Time{late, early}
	wind := windTable("2024-07-01 11PM")

	merged, ok := MergeSpot("A", []CategoryTable{wind, tides}, nil)
	require.True(t, ok)
	require.Len(t, merged.Times, 2)

	assert.Equal(t, "2024-07-01 11PM", merged.Rows[0]["timestamp"])
	// the instant is the tides one, not the timestamp parsed as UTC
	assert.True(t, merged.Times[0].Equal(early), merged.Times[0])
	assert.Equal(t, pdt, merged.Times[1].Location())
	assert.True(t, merged.Times[1].Equal(late))
}
