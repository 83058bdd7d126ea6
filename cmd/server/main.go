package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/bbernstein/duckdive/internal/api"
	"github.com/bbernstein/duckdive/internal/config"
	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/internal/observability"
	"github.com/bbernstein/duckdive/internal/report"
	"github.com/bbernstein/duckdive/internal/scheduler"
	"github.com/bbernstein/duckdive/internal/store"
	"github.com/bbernstein/duckdive/internal/surfline"
	"github.com/bbernstein/duckdive/pkg/http/client"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func newApp(h *api.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "duckdive",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(api.NewErrorResponse(err.Error()))
		},
	})

	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
		return err
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	api.RegisterRoutes(app, h)
	return app
}

// scheduledSinks returns the sinks configured for scheduled reports, plus a
// func releasing their connections
func scheduledSinks(ctx context.Context, cfg *config.Config, sinkCfg *config.SinkConfig, reports *store.DynamoReportStore) ([]scheduler.Sink, func()) {
	var sinks []scheduler.Sink
	var closers []func() error

	if reports != nil {
		sinks = append(sinks, scheduler.Sink{Name: "dynamodb", Save: reports.SaveReport})
	}
	if len(sinkCfg.KafkaBrokers) > 0 {
		publisher := store.NewKafkaPublisher(sinkCfg.KafkaBrokers, sinkCfg.KafkaTopic)
		sinks = append(sinks, scheduler.Sink{Name: "kafka", Save: publisher.Publish})
		closers = append(closers, publisher.Close)
	}
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL, sinkCfg.PostgresTable)
		if err != nil {
			log.Error().Err(err).Msg("Error connecting to postgres, scheduled reports will not be loaded")
		} else {
			sinks = append(sinks, scheduler.Sink{Name: "postgres", Save: pg.Load})
			closers = append(closers, pg.Close)
		}
	}

	return sinks, func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Error().Err(err).Msg("Error closing sink")
			}
		}
	}
}

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()
	sinkCfg := config.GetSinkConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spots, err := config.LoadSpotDirectory(cfg.SpotsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading spots")
	}

	httpClient := client.New(client.Options{
		BaseURL:    cfg.SurflineBaseURL,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		Headers:    surfline.DefaultHeaders(),
	})
	svc := report.NewService(
		surfline.NewClient(httpClient),
		spots,
		report.WithLocation(cfg.Location),
		report.WithConcurrency(cfg.FetchConcurrency),
		report.WithFetchTimeout(cfg.FetchTimeout),
		report.WithMetrics(observability.NewMetrics()),
	)

	handler := &api.Handler{
		Runner:   svc,
		Spots:    spots,
		Defaults: cfg.FetchParams(),
	}

	var reports *store.DynamoReportStore
	if cfg.ReportTable != "" {
		dynamoClient, err := store.NewDynamoClient(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error creating DynamoDB client, reports will not be saved")
		} else {
			reports = store.NewDynamoReportStore(dynamoClient, cfg.ReportTable, sinkCfg)
			handler.Store = reports
		}
	}

	sinks, closeSinks := scheduledSinks(ctx, cfg, sinkCfg, reports)
	defer closeSinks()

	sched := scheduler.New(svc, report.Request{
		SpotIDs:    spots.DefaultIDs(),
		Categories: models.AllCategories(),
		Params:     cfg.FetchParams(),
	}, cfg.RefreshInterval, sinks...)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Error starting scheduler")
	}
	defer sched.Stop()

	app := newApp(handler)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}
