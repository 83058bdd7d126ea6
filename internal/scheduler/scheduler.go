// Package scheduler builds a report on a fixed interval and hands it to the
// configured sinks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/internal/report"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

type Runner interface {
	Run(ctx context.Context, req report.Request) (*models.Report, error)
}

// Sink receives every scheduled report
type Sink struct {
	Name string
	Save func(ctx context.Context, r *models.Report) error
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	request   report.Request
	sinks     []Sink
	interval  time.Duration
	timeout   time.Duration
}

func New(runner Runner, req report.Request, interval time.Duration, sinks ...Sink) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		request:   req,
		sinks:     sinks,
		interval:  interval,
		timeout:   2 * time.Minute,
	}
}

// Start runs the job immediately and then every interval. Runs never overlap.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Info().Msg("Scheduled reports disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled report failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling report job: %w", err)
	}

	s.scheduler.StartAsync()
	log.Info().
		Dur("interval", s.interval).
		Int("spots", len(s.request.SpotIDs)).
		Int("sinks", len(s.sinks)).
		Msg("Started report scheduler")
	return nil
}

func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce builds one report and saves it to every sink. A failing sink does
// not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	result, err := s.runner.Run(ctx, s.request)
	if err != nil {
		return fmt.Errorf("building scheduled report: %w", err)
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Save(ctx, result); err != nil {
			log.Error().Err(err).Str("sink", sink.Name).Str("report_id", result.ID).Msg("Error saving scheduled report")
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name, err))
		}
	}

	log.Info().
		Str("report_id", result.ID).
		Str("summary", result.Summary()).
		Int("errors", len(result.Errors)).
		Msg("Scheduled report complete")
	return errors.Join(errs...)
}
