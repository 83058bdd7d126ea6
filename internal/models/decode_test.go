package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	t.Parallel()

	t.Run("swells with nested components", func(t *testing.T) {
		t.Parallel()
		raw := json.RawMessage(`[{"timestamp":1700000000,"utcOffset":-8,"probability":100,"power":12.5,
			"swells":[{"height":2.1,"period":14,"direction":270,"optimalScore":1},{"height":0.5,"period":8}]}]`)

		records, err := DecodeRecords(CategorySwells, raw)
		require.NoError(t, err)
		require.Len(t, records, 1)

		rec, ok := records[0].(SwellsRecord)
		require.True(t, ok)
		assert.Equal(t, CategorySwells, rec.Category())
		assert.Equal(t, int64(1700000000), *rec.Time())
		assert.Equal(t, -8.0, *rec.Offset())
		require.Len(t, rec.Swells, 2)
		assert.Equal(t, 2.1, *rec.Swells[0].Height)
		assert.Nil(t, rec.Swells[1].Direction)
	})

	t.Run("sunlight falls back to midnight", func(t *testing.T) {
		t.Parallel()
		records, err := DecodeRecords(CategorySunlight, json.RawMessage(`[{"midnight":1700000000,"dawn":1700020000}]`))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(1700000000), *records[0].Time())
		assert.Nil(t, records[0].Offset())
	})

	t.Run("null array", func(t *testing.T) {
		t.Parallel()
		records, err := DecodeRecords(CategoryTides, json.RawMessage(`null`))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeRecords(CategoryTides, json.RawMessage(`[{"timestamp":"yesterday"}]`))
		assert.ErrorContains(t, err, "decoding tides records")
	})

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeRecords(Category("moon"), json.RawMessage(`[]`))
		assert.Error(t, err)
	})
}
