package models

import (
	"fmt"
	"strings"
)

// Category is one Surfline forecast data type
type Category string

const (
	CategoryRating     Category = "rating"
	CategoryConditions Category = "conditions"
	CategorySwells     Category = "swells"
	CategorySunlight   Category = "sunlight"
	CategoryWave       Category = "wave"
	CategoryWind       Category = "wind"
	CategoryTides      Category = "tides"
	CategoryWeather    Category = "weather"
)

var allCategories = []Category{
	CategoryRating,
	CategoryConditions,
	CategorySwells,
	CategorySunlight,
	CategoryWave,
	CategoryWind,
	CategoryTides,
	CategoryWeather,
}

// AllCategories returns every known category in a stable order
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts a category tag in any case
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown forecast category: %q", s)
	}
	return c, nil
}

// ParseCategories parses a comma separated list, dropping duplicates
func ParseCategories(s string) ([]Category, error) {
	var out []Category
	seen := make(map[Category]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCategory(part)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no forecast categories given")
	}
	return out, nil
}
