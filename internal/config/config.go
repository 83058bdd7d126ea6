package config

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	LogOutput   io.Writer
	HTTPTimeout time.Duration
	MaxRetries  int

	SurflineBaseURL string
	AccessToken     string
	ForecastDays    int
	IntervalHours   int
	MaxHeights      bool
	SDS             bool

	FetchConcurrency int
	FetchTimeout     time.Duration
	Location         *time.Location
	SpotsFile        string

	ReportTable  string
	ReportBucket string
	DatabaseURL  string

	// HTTP server settings; a zero RefreshInterval disables scheduled reports
	Port            string
	RefreshInterval time.Duration
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithLogOutput sets where console logs are written
func WithLogOutput(w io.Writer) Option {
	return func(c *Config) {
		c.LogOutput = w
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

func WithSurflineBaseURL(u string) Option {
	return func(c *Config) {
		c.SurflineBaseURL = u
	}
}

// WithAccessToken sets the Surfline subscriber token, which allows up to 17 forecast days
func WithAccessToken(token string) Option {
	return func(c *Config) {
		c.AccessToken = token
	}
}

func WithForecastDays(days int) Option {
	return func(c *Config) {
		c.ForecastDays = days
	}
}

func WithIntervalHours(hours int) Option {
	return func(c *Config) {
		c.IntervalHours = hours
	}
}

func WithFetchConcurrency(n int) Option {
	return func(c *Config) {
		c.FetchConcurrency = n
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.FetchTimeout = d
	}
}

// WithTimezone sets the zone reports are rendered in. Unknown names keep the current zone.
func WithTimezone(name string) Option {
	return func(c *Config) {
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Warn().Str("timezone", name).Err(err).Msg("Unknown timezone, keeping default")
			return
		}
		c.Location = loc
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithRefreshInterval sets how often the server builds and saves a report
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Config) {
		c.RefreshInterval = d
	}
}

func WithSpotsFile(path string) Option {
	return func(c *Config) {
		c.SpotsFile = path
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:      "production",
		LogLevel:         zerolog.InfoLevel,
		LogOutput:        os.Stdout,
		HTTPTimeout:      10 * time.Second,
		MaxRetries:       3,
		SurflineBaseURL:  "https://services.surfline.com",
		ForecastDays:     3,
		IntervalHours:    1,
		MaxHeights:       true,
		SDS:              true,
		FetchConcurrency: 4,
		FetchTimeout:     30 * time.Second,
		Location:         time.UTC,
		SpotsFile:        DefaultSpotsFile,
		ReportTable:      "surfline-reports",
		Port:             "8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: c.LogOutput})
	}
}

// FetchParams returns the per-request Surfline options
func (c *Config) FetchParams() models.FetchParams {
	return models.FetchParams{
		Days:          c.ForecastDays,
		IntervalHours: c.IntervalHours,
		MaxHeights:    c.MaxHeights,
		SDS:           c.SDS,
		AccessToken:   c.AccessToken,
	}
}

// LoadFromEnv loads configuration from environment variables, after reading
// a .env file from the working directory when one exists
func LoadFromEnv(opts ...Option) *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	envOpts := []Option{
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithMaxRetries(getEnvInt("FETCH_MAX_RETRIES", 3)),
		WithSurflineBaseURL(getEnvOrDefault("SURFLINE_BASE_URL", "https://services.surfline.com")),
		WithAccessToken(os.Getenv("SURFLINE_ACCESS_TOKEN")),
		WithForecastDays(getEnvInt("FORECAST_DAYS", 3)),
		WithIntervalHours(getEnvInt("FORECAST_INTERVAL_HOURS", 1)),
		WithFetchConcurrency(getEnvInt("FETCH_CONCURRENCY", 4)),
		WithFetchTimeout(getDurationEnvOrDefault("FETCH_TIMEOUT", 30*time.Second)),
		WithTimezone(getEnvOrDefault("REPORT_TIMEZONE", "Local")),
		WithSpotsFile(getEnvOrDefault("SPOTS_FILE", DefaultSpotsFile)),
		WithPort(getEnvOrDefault("PORT", "8080")),
		WithRefreshInterval(getDurationEnvOrDefault("REFRESH_INTERVAL", 0)),
		func(c *Config) {
			c.MaxHeights = getEnvBool("FORECAST_MAX_HEIGHTS", true)
			c.SDS = getEnvBool("FORECAST_SDS", true)
			c.ReportTable = getEnvOrDefault("REPORT_TABLE", c.ReportTable)
			c.ReportBucket = os.Getenv("REPORT_BUCKET")
			c.DatabaseURL = os.Getenv("DATABASE_URL")
		},
	}

	return New(append(envOpts, opts...)...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
