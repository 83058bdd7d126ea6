package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/internal/report"
	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

func (r APIResponse) GetResponseType() string {
	return r.ResponseType
}

// ReportResponse carries rows as display strings in column order
type ReportResponse struct {
	APIResponse
	ID          string               `json:"id"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Summary     string               `json:"summary"`
	Columns     []string             `json:"columns"`
	Rows        [][]string           `json:"rows"`
	Errors      []models.ReportError `json:"errors,omitempty"`
}

type ErrorResponse struct {
	APIResponse
	Error  string               `json:"error"`
	Errors []models.ReportError `json:"errors,omitempty"`
}

func NewReportResponse(r *models.Report) *ReportResponse {
	return &ReportResponse{
		APIResponse: APIResponse{ResponseType: "report"},
		ID:          r.ID,
		GeneratedAt: r.GeneratedAt,
		Summary:     r.Summary(),
		Columns:     r.Columns,
		Rows:        r.Records(),
		Errors:      r.Errors,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	return respond(body, http.StatusOK)
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	return respond(NewErrorResponse(message), statusCode)
}

// ErrorWithDetails is Error plus the per-spot failures of a partial run
func ErrorWithDetails(message string, statusCode int, errs []models.ReportError) (events.APIGatewayProxyResponse, error) {
	return respond(errorWithDetails(message, errs), statusCode)
}

func errorWithDetails(message string, errs []models.ReportError) *ErrorResponse {
	resp := NewErrorResponse(message)
	resp.Errors = errs
	return resp
}

// Respond encodes body as a JSON API Gateway response
func Respond(statusCode int, body interface{}) (events.APIGatewayProxyResponse, error) {
	return respond(body, statusCode)
}

func respond(body interface{}, statusCode int) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		jsonBody, _ = json.Marshal(NewErrorResponse("Internal Server Error"))
		statusCode = http.StatusInternalServerError
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

// SpotResolver turns spot names or ids into spot ids. An empty list resolves
// to the default spots.
type SpotResolver interface {
	ResolveAll(namesOrIDs []string) ([]string, error)
}

type InvalidParameterError struct {
	Name   string
	Reason string
}

func (e InvalidParameterError) Error() string {
	return "Invalid parameter " + e.Name + ": " + e.Reason
}

// Parameter parsing helpers

// ParseReportRequest builds a report request from query parameters. Fetch
// parameters not present in the query keep the values from defaults; the
// simplified view and the today window are on unless turned off.
func ParseReportRequest(params map[string]string, spots SpotResolver, defaults models.FetchParams) (report.Request, error) {
	req := report.Request{Params: defaults}

	spotIDs, err := spots.ResolveAll(splitList(params["spots"]))
	if err != nil {
		return report.Request{}, InvalidParameterError{Name: "spots", Reason: err.Error()}
	}
	req.SpotIDs = spotIDs

	if raw := params["categories"]; strings.TrimSpace(raw) != "" {
		categories, err := models.ParseCategories(raw)
		if err != nil {
			return report.Request{}, InvalidParameterError{Name: "categories", Reason: err.Error()}
		}
		req.Categories = categories
	} else {
		req.Categories = models.AllCategories()
	}

	if req.Params.Days, err = parseInt(params, "days", req.Params.Days); err != nil {
		return report.Request{}, err
	}
	if req.Params.IntervalHours, err = parseInt(params, "intervalHours", req.Params.IntervalHours); err != nil {
		return report.Request{}, err
	}
	if req.Params.MaxHeights, err = parseBool(params, "maxHeights", req.Params.MaxHeights); err != nil {
		return report.Request{}, err
	}
	if req.Params.SDS, err = parseBool(params, "sds", req.Params.SDS); err != nil {
		return report.Request{}, err
	}
	if req.Simplify, err = parseBool(params, "simplify", true); err != nil {
		return report.Request{}, err
	}
	if req.Today, err = parseBool(params, "today", true); err != nil {
		return report.Request{}, err
	}

	return req, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(params map[string]string, name string, def int) (int, error) {
	raw, ok := params[name]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, InvalidParameterError{Name: name, Reason: "not a number"}
	}
	return v, nil
}

func parseBool(params map[string]string, name string, def bool) (bool, error) {
	raw, ok := params[name]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, InvalidParameterError{Name: name, Reason: "not a boolean"}
	}
	return v, nil
}

type ReportRunner interface {
	Run(ctx context.Context, req report.Request) (*models.Report, error)
}

type ReportStore interface {
	SaveReport(ctx context.Context, r *models.Report) error
	LoadReport(ctx context.Context, reportID string) (*models.Report, error)
}

// Handler answers report requests for both the Lambda and the HTTP server.
// Store is optional.
type Handler struct {
	Runner   ReportRunner
	Spots    SpotResolver
	Defaults models.FetchParams
	Store    ReportStore
}

// Report builds a report from query parameters and returns the status code
// and response body
func (h *Handler) Report(ctx context.Context, params map[string]string) (int, interface{}) {
	req, err := ParseReportRequest(params, h.Spots, h.Defaults)
	if err != nil {
		return http.StatusBadRequest, NewErrorResponse(err.Error())
	}

	result, err := h.Runner.Run(ctx, req)
	if err != nil {
		var details []models.ReportError
		if result != nil {
			details = result.Errors
		}

		var projErr *models.ProjectionError
		var paramsErr *models.InvalidParamsError
		switch {
		case errors.Is(err, models.ErrNoData):
			return http.StatusNotFound, errorWithDetails("No data was returned", details)
		case errors.As(err, &projErr):
			return http.StatusBadRequest, errorWithDetails(projErr.Error(), details)
		case errors.As(err, &paramsErr):
			return http.StatusBadRequest, NewErrorResponse(paramsErr.Error())
		}

		log.Error().Err(err).Msg("Error building report")
		return http.StatusInternalServerError, NewErrorResponse("Error building report")
	}

	if h.Store != nil {
		if err := h.Store.SaveReport(ctx, result); err != nil {
			log.Error().Err(err).Str("report_id", result.ID).Msg("Error saving report")
		}
	}

	return http.StatusOK, NewReportResponse(result)
}

// SavedReport reads a stored report back by id
func (h *Handler) SavedReport(ctx context.Context, reportID string) (int, interface{}) {
	if h.Store == nil {
		return http.StatusNotFound, NewErrorResponse("Report storage is not configured")
	}

	saved, err := h.Store.LoadReport(ctx, reportID)
	if err != nil {
		log.Error().Err(err).Str("report_id", reportID).Msg("Error loading report")
		return http.StatusInternalServerError, NewErrorResponse("Error loading report")
	}
	if saved == nil {
		return http.StatusNotFound, NewErrorResponse("Report not found")
	}
	return http.StatusOK, NewReportResponse(saved)
}
