// Package surfline fetches single-category spot forecasts from the Surfline KBYG API.
package surfline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/pkg/http/client"
	"github.com/rs/zerolog/log"
)

type envelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

type Client struct {
	httpClient client.Interface
}

func NewClient(httpClient client.Interface) *Client {
	return &Client{
		httpClient: httpClient,
	}
}

// Fetch requests one category for one spot and decodes it into typed records.
// Only the requested category is read from the response; any other populated
// category is logged and ignored.
func (c *Client) Fetch(ctx context.Context, spotID string, category models.Category, params models.FetchParams) (models.Batch, error) {
	path, err := ForecastPath(spotID, category, params)
	if err != nil {
		return models.Batch{}, err
	}

	log.Debug().
		Str("spot_id", spotID).
		Str("category", category.String()).
		Msg("Fetching forecast")

	resp, err := c.httpClient.Get(ctx, path)
	if err != nil {
		return models.Batch{}, NewAPIError("fetching forecast", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "unexpected status"}
		var body errorBody
		if json.Unmarshal(resp.Body, &body) == nil && body.Message != "" {
			apiErr.Message = body.Message
		}
		return models.Batch{}, apiErr
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return models.Batch{}, NewAPIError("decoding response", err)
	}

	raw, ok := env.Data[string(category)]
	if !ok {
		return models.Batch{}, NewAPIError(fmt.Sprintf("response has no %s data", category), nil)
	}

	if others := otherCategories(env.Data, category); len(others) > 0 {
		log.Warn().
			Str("spot_id", spotID).
			Str("category", category.String()).
			Strs("ignored", others).
			Msg("Response carried more than one forecast category")
	}

	records, err := models.DecodeRecords(category, raw)
	if err != nil {
		return models.Batch{}, NewAPIError("decoding records", err)
	}

	return models.Batch{
		SpotID:   spotID,
		Category: category,
		Records:  records,
	}, nil
}

func otherCategories(data map[string]json.RawMessage, requested models.Category) []string {
	var out []string
	for name, raw := range data {
		if name == string(requested) || string(raw) == "null" {
			continue
		}
		if models.Category(name).Valid() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
