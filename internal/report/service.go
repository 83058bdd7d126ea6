// Package report turns per-category Surfline forecasts for several spots into
// one shaped table.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/internal/normalize"
	"github.com/bbernstein/duckdive/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves one category of forecast data for one spot
type Fetcher interface {
	Fetch(ctx context.Context, spotID string, category models.Category, params models.FetchParams) (models.Batch, error)
}

// Request describes one report run
type Request struct {
	SpotIDs    []string
	Categories []models.Category
	Params     models.FetchParams
	Simplify   bool
	Today      bool
}

type Service struct {
	fetcher      Fetcher
	namer        SpotNamer
	clock        clockwork.Clock
	location     *time.Location
	concurrency  int
	fetchTimeout time.Duration
	metrics      *observability.Metrics
}

type Option func(*Service)

// WithClock sets the clock used for the today window and report timestamps
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLocation sets the zone for records that carry no utcOffset
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// WithConcurrency bounds parallel fetches; 1 fetches sequentially
func WithConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// WithFetchTimeout bounds each single-category fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.fetchTimeout = d
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(fetcher Fetcher, namer SpotNamer, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		namer:       namer,
		clock:       clockwork.NewRealClock(),
		location:    time.UTC,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	return s
}

type fetchResult struct {
	batch models.Batch
	err   error
}

// Run fetches every spot/category pair, then merges, combines and shapes the
// results. Failed fetches are collected in the report's Errors. When nothing
// came back the partial report is returned with models.ErrNoData; a missing
// simplify column returns a *models.ProjectionError.
func (s *Service) Run(ctx context.Context, req Request) (*models.Report, error) {
	if len(req.SpotIDs) == 0 {
		return nil, errors.New("no spots requested")
	}
	if len(req.Categories) == 0 {
		return nil, errors.New("no forecast categories requested")
	}
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}

	start := s.clock.Now()
	defer func() {
		s.metrics.RunDuration.Observe(s.clock.Since(start).Seconds())
	}()

	results := s.fetchAll(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("report run cancelled: %w", err)
	}

	report := &models.Report{
		ID:          uuid.NewString(),
		GeneratedAt: s.clock.Now(),
	}

	var spotTables []models.Table
	for i, spotID := range req.SpotIDs {
		var tables []CategoryTable
		for j, category := range req.Categories {
			table, err := s.normalizeResult(results[i][j], category)
			if err != nil {
				report.Errors = append(report.Errors, models.ReportError{
					SpotID:   spotID,
					Category: category,
					Message:  err.Error(),
				})
				continue
			}
			tables = append(tables, CategoryTable{Category: category, Table: table})
		}

		merged, ok := MergeSpot(spotID, tables, s.location)
		if !ok {
			log.Warn().Str("spot_id", spotID).Msg("No forecast categories retrieved for spot")
			continue
		}
		spotTables = append(spotTables, merged)
	}
	s.metrics.ReportErrors.Add(float64(len(report.Errors)))

	combined := Combine(spotTables, s.namer, s.location)
	if len(combined.Rows) == 0 {
		s.metrics.ReportRows.Set(0)
		return report, models.ErrNoData
	}

	shaped, err := NewShaper(s.clock).Shape(combined, ShapeOptions{
		Simplify: req.Simplify,
		Today:    req.Today,
	})
	if err != nil {
		return report, err
	}

	report.Columns = shaped.Columns
	report.Rows = shaped.Rows
	s.metrics.ReportRows.Set(float64(len(report.Rows)))

	log.Info().
		Str("report_id", report.ID).
		Int("spots", len(spotTables)).
		Int("errors", len(report.Errors)).
		Str("summary", report.Summary()).
		Msg("Built forecast report")

	return report, nil
}

// fetchAll runs every fetch through a bounded group. Each task writes only its
// own results[spot][category] slot.
func (s *Service) fetchAll(ctx context.Context, req Request) [][]fetchResult {
	results := make([][]fetchResult, len(req.SpotIDs))
	for i := range results {
		results[i] = make([]fetchResult, len(req.Categories))
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, spotID := range req.SpotIDs {
		for j, category := range req.Categories {
			i, j, spotID, category := i, j, spotID, category
			g.Go(func() error {
				results[i][j] = s.fetchOne(ctx, spotID, category, req.Params)
				return nil
			})
		}
	}
	_ = g.Wait()

	return results
}

func (s *Service) fetchOne(ctx context.Context, spotID string, category models.Category, params models.FetchParams) fetchResult {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	start := s.clock.Now()
	batch, err := s.fetcher.Fetch(ctx, spotID, category, params)
	s.metrics.FetchDuration.WithLabelValues(category.String()).Observe(s.clock.Since(start).Seconds())

	if err != nil {
		s.metrics.FetchRequests.WithLabelValues(category.String(), "error").Inc()
		log.Error().
			Err(err).
			Str("spot_id", spotID).
			Str("category", category.String()).
			Msg("Error fetching forecast")
		return fetchResult{err: err}
	}

	s.metrics.FetchRequests.WithLabelValues(category.String(), "success").Inc()
	return fetchResult{batch: batch}
}

func (s *Service) normalizeResult(res fetchResult, category models.Category) (models.Table, error) {
	if res.err != nil {
		return models.Table{}, res.err
	}
	table, err := normalize.Normalize(category, res.batch.Records, normalize.Options{Location: s.location})
	if err != nil {
		return models.Table{}, fmt.Errorf("normalizing %s: %w", category, err)
	}
	s.metrics.RowsNormalized.WithLabelValues(category.String()).Add(float64(len(table.Rows)))
	return table, nil
}
