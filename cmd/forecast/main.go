// Command forecast prints a combined Surfline forecast for several spots and
// optionally exports it as CSV, to DynamoDB or to Postgres.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/bbernstein/duckdive/internal/config"
	"github.com/bbernstein/duckdive/internal/export"
	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/internal/observability"
	"github.com/bbernstein/duckdive/internal/report"
	"github.com/bbernstein/duckdive/internal/store"
	"github.com/bbernstein/duckdive/internal/surfline"
	"github.com/bbernstein/duckdive/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	spots       string
	categories  string
	days        int
	interval    int
	maxHeights  bool
	sds         bool
	token       string
	timezone    string
	simplify    bool
	today       bool
	csv         string
	dynamo      bool
	postgres    bool
	kafka       bool
	metricsFile string
	limit       int

	// set holds the flags given on the command line
	set map[string]bool
}

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

func cliMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		metrics = observability.NewMetrics()
	})
	return metrics
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.spots, "spots", "", "comma separated spot names or ids (default: configured spots)")
	fs.StringVar(&opts.categories, "categories", "", "comma separated forecast types (default: all)")
	fs.IntVar(&opts.days, "days", 0, "days of forecast (default: FORECAST_DAYS)")
	fs.IntVar(&opts.interval, "interval", 0, "hours between forecast points (default: FORECAST_INTERVAL_HOURS)")
	fs.BoolVar(&opts.maxHeights, "max-heights", true, "request max heights (default: FORECAST_MAX_HEIGHTS)")
	fs.BoolVar(&opts.sds, "sds", true, "request the sds swell model (default: FORECAST_SDS)")
	fs.StringVar(&opts.token, "token", "", "surfline access token, allows up to 17 days")
	fs.StringVar(&opts.timezone, "timezone", "", "zone for timestamps and the today window (default: REPORT_TIMEZONE)")
	fs.BoolVar(&opts.simplify, "simplify", true, "keep only the summary columns")
	fs.BoolVar(&opts.today, "today", true, "keep only today's rows between 7am and 8pm")
	fs.StringVar(&opts.csv, "csv", "", "write the report as CSV to a path, s3://bucket/key, or s3 for REPORT_BUCKET")
	fs.BoolVar(&opts.dynamo, "dynamo", false, "save the report to the REPORT_TABLE DynamoDB table")
	fs.BoolVar(&opts.postgres, "postgres", false, "load the report into postgres at DATABASE_URL")
	fs.BoolVar(&opts.kafka, "kafka", false, "publish report rows to KAFKA_TOPIC on KAFKA_BROKERS")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	fs.IntVar(&opts.limit, "limit", -1, "rows to print, 0 for all (default: PREVIEW_ROWS)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	return opts, nil
}

func (o *options) configOptions(stderr io.Writer) []config.Option {
	cfgOpts := []config.Option{config.WithLogOutput(stderr)}
	if o.days > 0 {
		cfgOpts = append(cfgOpts, config.WithForecastDays(o.days))
	}
	if o.interval > 0 {
		cfgOpts = append(cfgOpts, config.WithIntervalHours(o.interval))
	}
	if o.token != "" {
		cfgOpts = append(cfgOpts, config.WithAccessToken(o.token))
	}
	if o.timezone != "" {
		cfgOpts = append(cfgOpts, config.WithTimezone(o.timezone))
	}
	if o.set["max-heights"] {
		cfgOpts = append(cfgOpts, func(c *config.Config) {
			c.MaxHeights = o.maxHeights
		})
	}
	if o.set["sds"] {
		cfgOpts = append(cfgOpts, func(c *config.Config) {
			c.SDS = o.sds
		})
	}
	return cfgOpts
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg := config.LoadFromEnv(opts.configOptions(stderr)...)
	cfg.InitializeLogging()
	sinkCfg := config.GetSinkConfig()

	spots, err := config.LoadSpotDirectory(cfg.SpotsFile)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitError
	}

	req, err := buildRequest(opts, cfg, spots)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
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
		report.WithMetrics(cliMetrics()),
	)

	result, runErr := svc.Run(ctx, req)
	code := exitOK
	defer func() {
		if opts.metricsFile == "" {
			return
		}
		if err := observability.WriteTextfile(opts.metricsFile); err != nil {
			log.Error().Err(err).Msg("Error writing metrics")
		}
	}()

	if result != nil {
		if err := export.WriteErrors(stderr, result.Errors); err != nil {
			log.Error().Err(err).Msg("Error printing report errors")
		}
	}

	var projErr *models.ProjectionError
	switch {
	case errors.Is(runErr, models.ErrNoData):
		_, _ = fmt.Fprintln(stderr, "No data was returned.")
		return exitError
	case errors.As(runErr, &projErr):
		_, _ = fmt.Fprintln(stderr, projErr.Error())
		return exitError
	case runErr != nil:
		_, _ = fmt.Fprintln(stderr, runErr)
		return exitError
	}

	limit := opts.limit
	if limit < 0 {
		limit = sinkCfg.PreviewRows
	}
	if err := export.WriteTable(stdout, result, limit); err != nil {
		log.Error().Err(err).Msg("Error printing report")
		code = exitError
	}

	for _, sink := range sinks(opts, cfg, sinkCfg) {
		if err := sink(ctx, result); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			code = exitError
		}
	}

	return code
}

func buildRequest(opts *options, cfg *config.Config, spots *config.SpotDirectory) (report.Request, error) {
	var names []string
	for _, s := range strings.Split(opts.spots, ",") {
		if s = strings.TrimSpace(s); s != "" {
			names = append(names, s)
		}
	}
	spotIDs, err := spots.ResolveAll(names)
	if err != nil {
		return report.Request{}, err
	}

	categories := models.AllCategories()
	if strings.TrimSpace(opts.categories) != "" {
		if categories, err = models.ParseCategories(opts.categories); err != nil {
			return report.Request{}, err
		}
	}

	return report.Request{
		SpotIDs:    spotIDs,
		Categories: categories,
		Params:     cfg.FetchParams(),
		Simplify:   opts.simplify,
		Today:      opts.today,
	}, nil
}

type sinkFunc func(ctx context.Context, r *models.Report) error

func sinks(opts *options, cfg *config.Config, sinkCfg *config.SinkConfig) []sinkFunc {
	var out []sinkFunc
	if opts.csv != "" {
		out = append(out, func(ctx context.Context, r *models.Report) error {
			return writeCSV(ctx, opts.csv, cfg.ReportBucket, r)
		})
	}
	if opts.dynamo {
		out = append(out, func(ctx context.Context, r *models.Report) error {
			dynamoClient, err := store.NewDynamoClient(ctx)
			if err != nil {
				return fmt.Errorf("creating DynamoDB client: %w", err)
			}
			return store.NewDynamoReportStore(dynamoClient, cfg.ReportTable, sinkCfg).SaveReport(ctx, r)
		})
	}
	if opts.postgres {
		out = append(out, func(ctx context.Context, r *models.Report) error {
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL, sinkCfg.PostgresTable)
			if err != nil {
				return err
			}
			defer func() {
				if err := pg.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing postgres")
				}
			}()
			return pg.Load(ctx, r)
		})
	}
	if opts.kafka {
		out = append(out, func(ctx context.Context, r *models.Report) error {
			if len(sinkCfg.KafkaBrokers) == 0 {
				return errors.New("KAFKA_BROKERS is not set")
			}
			publisher := store.NewKafkaPublisher(sinkCfg.KafkaBrokers, sinkCfg.KafkaTopic)
			defer func() {
				if err := publisher.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing kafka writer")
				}
			}()
			return publisher.Publish(ctx, r)
		})
	}
	return out
}

// writeCSV writes to a local path, an s3:// URI, or with "s3" to the
// configured bucket under the default key
func writeCSV(ctx context.Context, dest, reportBucket string, r *models.Report) error {
	if dest == "s3" || strings.HasPrefix(dest, "s3://") {
		bucket, key := reportBucket, store.DefaultKey(r)
		if dest != "s3" {
			var err error
			if bucket, key, err = store.ParseS3URI(dest); err != nil {
				return err
			}
		}
		s3Client, err := store.NewS3Client(ctx)
		if err != nil {
			return fmt.Errorf("creating S3 client: %w", err)
		}
		return store.NewS3Exporter(s3Client, bucket).ExportCSV(ctx, key, r)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	if err := export.WriteCSV(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}
	log.Info().Str("path", dest).Int("rows", len(r.Rows)).Msg("Wrote CSV export")
	return nil
}
