// Package config loads immutable run configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/logging"
)

// Config is the resolved configuration for one run. Load fills every field;
// nothing reads the environment after that.
type Config struct {
	WeatherAPIKey     string
	WeatherHost       string
	WeatherLocation   string
	WeatherElements   string
	ElectricityAPIKey string
	ElectricityHost   string
	Zone              string
	Granularity       string

	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // custom S3 endpoint, e.g. a local MinIO
	AccessKey string
	SecretKey string
	// LocalDir switches storage to the local filesystem. Dev only.
	LocalDir string

	MaxAttempts int
	RetryDelay  time.Duration
	// BackoffMode selects the retry delay strategy: "fixed" waits RetryDelay
	// between attempts, "exponential" doubles from RetryDelay per attempt.
	BackoffMode string
	HTTPTimeout time.Duration

	BackfillStart time.Time
	Concurrency   int
}

// Load reads configuration from the environment with defaults matching the
// production deployment. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.L().Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := &Config{
		WeatherAPIKey:     os.Getenv("WEATHER_API_KEY"),
		WeatherHost:       getenvDefault("WEATHER_API_HOST", "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"),
		WeatherLocation:   getenvDefault("WEATHER_LOCATION", "Vietnam"),
		WeatherElements:   getenvDefault("WEATHER_ELEMENTS", "datetime,temp,humidity,precip,windspeed,cloudcover"),
		ElectricityAPIKey: os.Getenv("ELECTRICITY_API_KEY"),
		ElectricityHost:   getenvDefault("ELECTRICITY_API_HOST", "https://api.electricitymaps.com/v3"),
		Zone:              getenvDefault("ELECTRICITY_ZONE", "VN"),
		Granularity:       getenvDefault("ELECTRICITY_GRANULARITY", "hourly"),

		Bucket:    getenvDefault("S3_BUCKET", "vietnam-energy-data"),
		Prefix:    getenvDefault("S3_PREFIX", "bronze"),
		Region:    getenvDefault("AWS_REGION", "ap-southeast-1"),
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		LocalDir:  os.Getenv("LOCAL_DATA_DIR"),

		MaxAttempts: getenvInt("INGEST_MAX_ATTEMPTS", 3),
		BackoffMode: getenvDefault("INGEST_BACKOFF", "fixed"),
		Concurrency: getenvInt("INGEST_CONCURRENCY", 1),
	}

	var err error
	if cfg.RetryDelay, err = getenvDuration("INGEST_RETRY_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("INGEST_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	startStr := getenvDefault("BACKFILL_START", "2021-01-01")
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_START %q: %w", startStr, err)
	}
	cfg.BackfillStart = start

	return cfg, nil
}

// Validate checks that the configuration can support a run. Compaction reads
// and writes the store only, so it does not need provider API keys.
func (c *Config) Validate(needAPIKeys bool) error {
	if needAPIKeys {
		if c.WeatherAPIKey == "" {
			return fmt.Errorf("WEATHER_API_KEY is required for ingestion modes")
		}
		if c.ElectricityAPIKey == "" {
			return fmt.Errorf("ELECTRICITY_API_KEY is required for ingestion modes")
		}
	}
	if c.LocalDir == "" && c.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required unless LOCAL_DATA_DIR is set")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("INGEST_MAX_ATTEMPTS must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BackoffMode != "fixed" && c.BackoffMode != "exponential" {
		return fmt.Errorf("INGEST_BACKOFF must be \"fixed\" or \"exponential\", got %q", c.BackoffMode)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("INGEST_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
