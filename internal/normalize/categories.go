package normalize

import "github.com/bbernstein/duckdive/internal/models"

func rating(row models.Row, r models.RatingRecord) {
	row["rating_key"] = nil
	row["rating_value"] = nil
	if r.Rating == nil {
		return
	}
	row["rating_key"] = str(r.Rating.Key)
	row["rating_value"] = num(r.Rating.Value)
}

// swells keeps only the primary (first) swell train. Its power wins over the
// record-level power when both are present.
func swells(row models.Row, r models.SwellsRecord) {
	row["probability"] = num(r.Probability)
	row["power"] = num(r.Power)

	var primary models.SwellComponent
	if len(r.Swells) > 0 {
		primary = r.Swells[0]
	}
	row["height"] = num(primary.Height)
	row["period"] = num(primary.Period)
	row["impact"] = num(primary.Impact)
	row["direction"] = num(primary.Direction)
	row["directionMin"] = num(primary.DirectionMin)
	row["optimalScore"] = OptimalScore(primary.OptimalScore)
	if primary.Power != nil {
		row["power"] = *primary.Power
	}
}

func (n normalizer) sunlight(row models.Row, r models.SunlightRecord) {
	row["midnight"] = n.clock(r, r.Midnight)
	row["dawn"] = n.clock(r, r.Dawn)
	row["sunrise"] = n.clock(r, r.Sunrise)
	row["sunset"] = n.clock(r, r.Sunset)
	row["dusk"] = n.clock(r, r.Dusk)
}

// wave flattens the surf range; the per-wave swell list is dropped
func wave(row models.Row, r models.WaveRecord) {
	row["probability"] = num(r.Probability)
	row["power"] = num(r.Power)

	var surf models.SurfRange
	if r.Surf != nil {
		surf = *r.Surf
	}
	row["surf_min"] = num(surf.Min)
	row["surf_max"] = num(surf.Max)
	row["surf_plus"] = boolean(surf.Plus)
	row["surf_humanRelation"] = str(surf.HumanRelation)
	row["surf_optimalScore"] = OptimalScore(surf.OptimalScore)
}

func conditions(row models.Row, r models.ConditionsRecord) {
	row["forecastDay"] = str(r.ForecastDay)
	row["human"] = boolean(r.Human)
	row["observation"] = str(r.Observation)

	var f models.Forecaster
	if r.Forecaster != nil {
		f = *r.Forecaster
	}
	row["forecaster_name"] = str(f.Name)
	row["forecaster_avatar"] = str(f.Avatar)

	period(row, "am", r.AM)
	period(row, "pm", r.PM)
}

var periodFields = []string{
	"timestamp", "observation", "rating", "minHeight",
	"maxHeight", "plus", "humanRelation", "occasionalHeight",
}

func periodColumns(prefix string) []string {
	cols := make([]string, len(periodFields))
	for i, f := range periodFields {
		cols[i] = prefix + "_" + f
	}
	return cols
}

func period(row models.Row, prefix string, p *models.ConditionsPeriod) {
	var v models.ConditionsPeriod
	if p != nil {
		v = *p
	}
	row[prefix+"_timestamp"] = integer(v.Timestamp)
	row[prefix+"_observation"] = str(v.Observation)
	row[prefix+"_rating"] = str(v.Rating)
	row[prefix+"_minHeight"] = num(v.MinHeight)
	row[prefix+"_maxHeight"] = num(v.MaxHeight)
	row[prefix+"_plus"] = boolean(v.Plus)
	row[prefix+"_humanRelation"] = str(v.HumanRelation)
	row[prefix+"_occasionalHeight"] = num(v.OccasionalHeight)
}
