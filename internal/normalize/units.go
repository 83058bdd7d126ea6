package normalize

import "github.com/bbernstein/duckdive/internal/models"

var units = map[string]string{
	"temperature": "F",
	"height":      "FT",
	"swellHeight": "FT",
	"waveHeight":  "FT",
	"windSpeed":   "KTS",
	"pressure":    "MB",
}

var optimalScores = map[int]string{
	0: "Suboptimal",
	1: "Good",
	2: "Optimal",
}

// Unit returns the display unit for a raw field name
func Unit(field string) (string, bool) {
	u, ok := units[field]
	return u, ok
}

// OptimalScore maps Surfline's 0-2 score to its label. Unknown scores are nil.
func OptimalScore(score *int) any {
	if score == nil {
		return nil
	}
	label, ok := optimalScores[*score]
	if !ok {
		return nil
	}
	return label
}

func applyUnits(row models.Row) {
	for field, unit := range units {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		row[field] = models.FormatValue(v) + " " + unit
	}
}
