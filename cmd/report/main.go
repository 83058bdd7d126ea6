package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/duckdive/internal/api"
	"github.com/bbernstein/duckdive/internal/config"
	"github.com/bbernstein/duckdive/internal/observability"
	"github.com/bbernstein/duckdive/internal/report"
	"github.com/bbernstein/duckdive/internal/store"
	"github.com/bbernstein/duckdive/internal/surfline"
	"github.com/bbernstein/duckdive/pkg/http/client"
	"github.com/rs/zerolog/log"
)

var (
	reportHandler *api.Handler
	setupOnce     sync.Once
)

func init() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		spots, err := config.LoadSpotDirectory(cfg.SpotsFile)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.SpotsFile).Msg("Error loading spots, using built-in spots")
			spots = config.NewSpotDirectory(nil)
		}

		// Initialize HTTP client
		httpClient := client.New(client.Options{
			BaseURL:    cfg.SurflineBaseURL,
			Timeout:    cfg.HTTPTimeout,
			MaxRetries: cfg.MaxRetries,
			Headers:    surfline.DefaultHeaders(),
		})

		reportHandler = &api.Handler{
			Runner: report.NewService(
				surfline.NewClient(httpClient),
				spots,
				report.WithLocation(cfg.Location),
				report.WithConcurrency(cfg.FetchConcurrency),
				report.WithFetchTimeout(cfg.FetchTimeout),
				report.WithMetrics(observability.NewMetrics()),
			),
			Spots:    spots,
			Defaults: cfg.FetchParams(),
		}

		if cfg.ReportTable == "" {
			return
		}
		dynamoClient, err := store.NewDynamoClient(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("Error creating DynamoDB client, reports will not be saved")
			return
		}
		reportHandler.Store = store.NewDynamoReportStore(dynamoClient, cfg.ReportTable, config.GetSinkConfig())
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters
	log.Info().Msg("Handling report request")

	if reportID, ok := params["reportId"]; ok {
		if reportID == "" {
			return api.Error("Missing parameter: reportId", http.StatusBadRequest)
		}
		return api.Respond(reportHandler.SavedReport(ctx, reportID))
	}
	return api.Respond(reportHandler.Report(ctx, params))
}

func main() {
	lambda.Start(handleRequest)
}
