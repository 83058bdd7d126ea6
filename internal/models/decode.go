package models

import (
	"encoding/json"
	"fmt"
)

// DecodeRecords decodes a JSON array of raw records for the given category.
// A null or missing array yields no records.
func DecodeRecords(category Category, raw json.RawMessage) ([]Record, error) {
	switch category {
	case CategoryTides:
		return decodeAs[TideRecord](category, raw)
	case CategoryWind:
		return decodeAs[WindRecord](category, raw)
	case CategoryWeather:
		return decodeAs[WeatherRecord](category, raw)
	case CategoryRating:
		return decodeAs[RatingRecord](category, raw)
	case CategorySwells:
		return decodeAs[SwellsRecord](category, raw)
	case CategorySunlight:
		return decodeAs[SunlightRecord](category, raw)
	case CategoryWave:
		return decodeAs[WaveRecord](category, raw)
	case CategoryConditions:
		return decodeAs[ConditionsRecord](category, raw)
	default:
		return nil, fmt.Errorf("unknown forecast category: %q", category)
	}
}

func decodeAs[T Record](category Category, raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var typed []T
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("decoding %s records: %w", category, err)
	}

	records := make([]Record, len(typed))
	for i, r := range typed {
		records[i] = r
	}
	return records, nil
}
