package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "duckdive"

// Metrics holds the Prometheus collectors for forecast report runs.
type Metrics struct {
	FetchRequests  *prometheus.CounterVec   // labels: category, outcome={success,error}
	FetchDuration  *prometheus.HistogramVec // labels: category
	RowsNormalized *prometheus.CounterVec   // labels: category
	ReportErrors   prometheus.Counter
	ReportRows     prometheus.Gauge
	RunDuration    prometheus.Histogram
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      help("Surfline category fetches by category and outcome."),
		}, []string{"category", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("Surfline category fetch duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"category"}),
		RowsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_normalized_total",
			Help:      help("Forecast records flattened into rows, by category."),
		}, []string{"category"}),
		ReportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_errors_total",
			Help:      help("Spot/category pairs that failed and were left out of a report."),
		}),
		ReportRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_rows",
			Help:      help("Rows in the most recent report."),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      help("Duration of a complete report run."),
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// NewMetrics creates and registers all report metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.RowsNormalized,
		m.ReportErrors,
		m.ReportRows,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

// WriteTextfile writes the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
