package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bbernstein/duckdive/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blacks = "5842041f4e65fad6a770883b"

// the fixture is dated 2024-07-01 and has no wave data, so most runs ask for
// the full table
var fullTable = []string{"-simplify=false", "-today=false"}

func args(extra ...string) []string {
	return append(append([]string{}, fullTable...), extra...)
}

func surflineServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message": "Spot not found"}`))
			return
		}
		switch r.URL.Path {
		case "/kbyg/spots/forecasts/tides":
			_, _ = w.Write([]byte(`{"data": {"tides": [
				{"timestamp": 1719838800, "utcOffset": 0, "type": "HIGH", "height": 5.1},
				{"timestamp": 1719842400, "utcOffset": 0, "type": "NORMAL", "height": 4.8}
			]}}`))
		case "/kbyg/spots/forecasts/wind":
			_, _ = w.Write([]byte(`{"data": {"wind": [
				{"timestamp": 1719838800, "utcOffset": 0, "speed": 7.5, "directionType": "Onshore"}
			]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setupEnv(t *testing.T, baseURL string) {
	t.Setenv("SURFLINE_BASE_URL", baseURL)
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REPORT_TIMEZONE", "UTC")
	t.Setenv("SPOTS_FILE", filepath.Join(t.TempDir(), "missing.json"))
}

func TestRunPrintsTable(t *testing.T) {
	server := surflineServer(t, http.StatusOK)
	setupEnv(t, server.URL)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args("-spots", "Blacks", "-categories", "tides,wind"), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "tides_height")
	assert.Contains(t, out, "5.1 FT")
	assert.Contains(t, out, "Blacks")
	assert.Contains(t, out, "2 rows x 10 columns")
}

func TestRunWritesCSV(t *testing.T) {
	server := surflineServer(t, http.StatusOK)
	setupEnv(t, server.URL)

	path := filepath.Join(t.TempDir(), "report.csv")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args("-spots", blacks, "-categories", "tides", "-csv", path, "-limit", "1"), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "(showing first 1)")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"timestamp", "spot_id", "spot", "tides_type", "tides_height"}, records[0])
	// newest first
	assert.Equal(t, "2024-07-01 02PM", records[1][0])
	assert.Equal(t, "4.8 FT", records[1][4])
}

func TestRunWritesMetrics(t *testing.T) {
	server := surflineServer(t, http.StatusOK)
	setupEnv(t, server.URL)

	path := filepath.Join(t.TempDir(), "duckdive.prom")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args("-spots", "Blacks", "-categories", "tides", "-metrics-file", path), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "duckdive_fetch_requests_total")
}

func TestRunNoData(t *testing.T) {
	server := surflineServer(t, http.StatusNotFound)
	setupEnv(t, server.URL)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-spots", "Blacks,OB", "-categories", "tides"}, &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "No data was returned.")
	assert.Equal(t, 2, strings.Count(stderr.String(), "error: spot "))
	assert.Contains(t, stderr.String(), "Spot not found")
}

func TestRunSimplifiesByDefault(t *testing.T) {
	server := surflineServer(t, http.StatusOK)
	setupEnv(t, server.URL)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-spots", "Blacks", "-categories", "tides"}, &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "simplified report requires missing columns")
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, opts.simplify)
	assert.True(t, opts.today)
	assert.Empty(t, opts.set)
}

func TestFetchFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FORECAST_MAX_HEIGHTS", "true")
	t.Setenv("FORECAST_SDS", "true")

	tests := []struct {
		name           string
		args           []string
		wantMaxHeights bool
		wantSDS        bool
	}{
		{name: "environment", args: nil, wantMaxHeights: true, wantSDS: true},
		{name: "switched off", args: []string{"-max-heights=false", "-sds=false"}, wantMaxHeights: false, wantSDS: false},
		{name: "one switched off", args: []string{"-sds=false"}, wantMaxHeights: true, wantSDS: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			opts, err := parseFlags(tt.args, &stderr)
			require.NoError(t, err)

			params := config.LoadFromEnv(opts.configOptions(&stderr)...).FetchParams()
			assert.Equal(t, tt.wantMaxHeights, params.MaxHeights)
			assert.Equal(t, tt.wantSDS, params.SDS)
		})
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"-bogus"}, want: "flag provided but not defined"},
		{name: "unknown spot", args: []string{"-spots", "Pipeline"}, want: "unknown spot"},
		{name: "unknown category", args: []string{"-categories", "snow"}, want: "snow"},
		{name: "positional argument", args: []string{"extra"}, want: "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t, "http://127.0.0.1:1")

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestRunPostgresWithoutURL(t *testing.T) {
	server := surflineServer(t, http.StatusOK)
	setupEnv(t, server.URL)
	t.Setenv("DATABASE_URL", "")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args("-spots", "Blacks", "-categories", "tides", "-postgres"), &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stdout.String(), "2 rows x 5 columns")
	assert.Contains(t, stderr.String(), "DATABASE_URL is not set")
}

func TestRunKafkaWithoutBrokers(t *testing.T) {
	server := surflineServer(t, http.StatusOK)
	setupEnv(t, server.URL)
	t.Setenv("KAFKA_BROKERS", "")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args("-spots", "Blacks", "-categories", "tides", "-kafka"), &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "KAFKA_BROKERS is not set")
}
