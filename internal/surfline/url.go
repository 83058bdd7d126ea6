package surfline

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/bbernstein/duckdive/internal/models"
)

const (
	DefaultBaseURL = "https://services.surfline.com"
	forecastsPath  = "/kbyg/spots/forecasts/"
)

// ForecastPath builds the request path and query for one category of one spot
func ForecastPath(spotID string, category models.Category, params models.FetchParams) (string, error) {
	if spotID == "" {
		return "", models.NewInvalidParamsError("spot id is required")
	}
	if !category.Valid() {
		return "", models.NewInvalidParamsError(fmt.Sprintf("invalid forecast type: %q", category))
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("spotId", spotID)
	q.Set("days", strconv.Itoa(params.Days))
	q.Set("intervalHours", strconv.Itoa(params.IntervalHours))
	q.Set("maxHeights", strconv.FormatBool(params.MaxHeights))
	q.Set("sds", strconv.FormatBool(params.SDS))
	if params.AccessToken != "" {
		q.Set("accesstoken", params.AccessToken)
	}

	return forecastsPath + string(category) + "?" + q.Encode(), nil
}

// DefaultHeaders mimics a browser on surfline.com; the API rejects bare clients
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://www.surfline.com/",
		"Origin":          "https://www.surfline.com",
	}
}
