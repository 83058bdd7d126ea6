package models

// Record is one raw forecast entry decoded from a Surfline category response.
// Optional fields are pointers so an absent key stays distinguishable from a zero value.
type Record interface {
	Category() Category
	// Time returns the record's epoch seconds, nil when the record has none
	Time() *int64
	// Offset returns the record's UTC offset in hours, nil when absent
	Offset() *float64
}

// Batch is the decoded result of one single-category fetch for one spot
type Batch struct {
	SpotID   string
	Category Category
	Records  []Record
}

// Stamp holds the fields every timestamped category shares
type Stamp struct {
	Timestamp *int64   `json:"timestamp"`
	UTCOffset *float64 `json:"utcOffset"`
}

func (s Stamp) Time() *int64 { return s.Timestamp }
func (s Stamp) Offset() *float64 { return s.UTCOffset }

type TideRecord struct {
	Stamp
	Type   *string  `json:"type"`
	Height *float64 `json:"height"`
}

func (TideRecord) Category() Category { return CategoryTides }

type WindRecord struct {
	Stamp
	Speed         *float64 `json:"speed"`
	Gust          *float64 `json:"gust"`
	Direction     *float64 `json:"direction"`
	DirectionType *string  `json:"directionType"`
	OptimalScore  *int     `json:"optimalScore"`
}

func (WindRecord) Category() Category { return CategoryWind }

type WeatherRecord struct {
	Stamp
	Temperature *float64 `json:"temperature"`
	Condition   *string  `json:"condition"`
	Pressure    *float64 `json:"pressure"`
}

func (WeatherRecord) Category() Category { return CategoryWeather }

type RatingValue struct {
	Key   *string  `json:"key"`
	Value *float64 `json:"value"`
}

type RatingRecord struct {
	Stamp
	Rating *RatingValue `json:"rating"`
}

func (RatingRecord) Category() Category { return CategoryRating }

// SwellComponent is one swell train inside a swells or wave record
type SwellComponent struct {
	Height       *float64 `json:"height"`
	Period       *float64 `json:"period"`
	Impact       *float64 `json:"impact"`
	Power        *float64 `json:"power"`
	Direction    *float64 `json:"direction"`
	DirectionMin *float64 `json:"directionMin"`
	OptimalScore *int     `json:"optimalScore"`
}

type SwellsRecord struct {
	Stamp
	Probability *float64         `json:"probability"`
	Power       *float64         `json:"power"`
	Swells      []SwellComponent `json:"swells"`
}

func (SwellsRecord) Category() Category { return CategorySwells }

type SurfRange struct {
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	Plus          *bool    `json:"plus"`
	HumanRelation *string  `json:"humanRelation"`
	OptimalScore  *int     `json:"optimalScore"`
}

type WaveRecord struct {
	Stamp
	Probability *float64         `json:"probability"`
	Power       *float64         `json:"power"`
	Surf        *SurfRange       `json:"surf"`
	Swells      []SwellComponent `json:"swells"`
}

func (WaveRecord) Category() Category { return CategoryWave }

// SunlightRecord carries one day's solar events; it has no timestamp of its own
// beyond the optional one some responses include
type SunlightRecord struct {
	Stamp
	Midnight *int64 `json:"midnight"`
	Dawn     *int64 `json:"dawn"`
	Sunrise  *int64 `json:"sunrise"`
	Sunset   *int64 `json:"sunset"`
	Dusk     *int64 `json:"dusk"`
}

func (SunlightRecord) Category() Category { return CategorySunlight }

func (s SunlightRecord) Time() *int64 {
	if s.Timestamp != nil {
		return s.Timestamp
	}
	return s.Midnight
}

type Forecaster struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// ConditionsPeriod is the forecaster's am or pm observation
type ConditionsPeriod struct {
	Timestamp        *int64   `json:"timestamp"`
	Observation      *string  `json:"observation"`
	Rating           *string  `json:"rating"`
	MinHeight        *float64 `json:"minHeight"`
	MaxHeight        *float64 `json:"maxHeight"`
	Plus             *bool    `json:"plus"`
	HumanRelation    *string  `json:"humanRelation"`
	OccasionalHeight *float64 `json:"occasionalHeight"`
}

type ConditionsRecord struct {
	Stamp
	ForecastDay *string           `json:"forecastDay"`
	Forecaster  *Forecaster       `json:"forecaster"`
	Human       *bool             `json:"human"`
	Observation *string           `json:"observation"`
	AM          *ConditionsPeriod `json:"am"`
	PM          *ConditionsPeriod `json:"pm"`
}

func (ConditionsRecord) Category() Category { return CategoryConditions }
