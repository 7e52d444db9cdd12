// Package cli implements the command-line interface for energy-ingest.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/compact"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/config"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/ingest"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/logging"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/partition"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/provider"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/storage"
)

const usage = "usage: energy-ingest <command> [options]\ncommands: backfill, hourly, compact"

// Run executes the CLI with the given arguments. With no arguments the
// command falls back to the MODE environment variable, so a scheduled
// container can select its mode without changing the entrypoint.
func Run(args []string) error {
	if len(args) == 0 {
		mode := strings.ToLower(os.Getenv("MODE"))
		if mode == "" {
			return errors.New(usage)
		}
		args = []string{mode}
	}

	switch args[0] {
	case "backfill":
		return runBackfill(args[1:])
	case "hourly":
		return runHourly(args[1:])
	case "compact", "compaction":
		return runCompaction(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// options collects the flag values shared across subcommands.
type options struct {
	debug       bool
	human       bool
	date        string
	hour        int
	start       string
	concurrency int
	localDir    string
}

func commonFlags(fs *flag.FlagSet, o *options) {
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&o.human, "human", false, "human-readable log output")
	fs.StringVar(&o.localDir, "local-dir", "", "store objects on the local filesystem instead of S3")
}

func runBackfill(args []string) error {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	var o options
	commonFlags(fs, &o)
	fs.StringVar(&o.start, "start", "", "backfill start date (YYYY-MM-DD, default from BACKFILL_START)")
	fs.StringVar(&o.date, "date", "", "backfill end date (YYYY-MM-DD, default yesterday)")
	fs.IntVar(&o.concurrency, "concurrency", 0, "parallel work items (default from INGEST_CONCURRENCY)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return execute(ingest.ModeBackfill, o)
}

func runHourly(args []string) error {
	fs := flag.NewFlagSet("hourly", flag.ContinueOnError)
	var o options
	commonFlags(fs, &o)
	fs.StringVar(&o.date, "date", "", "target date (YYYY-MM-DD, default derived from the clock)")
	fs.IntVar(&o.hour, "hour", provider.NoHour, "target hour 0-23 (default the previous full hour)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.hour != provider.NoHour && (o.hour < 0 || o.hour > 23) {
		return fmt.Errorf("--hour must be between 0 and 23, got %d", o.hour)
	}
	return execute(ingest.ModeHourly, o)
}

func runCompaction(args []string) error {
	fs := flag.NewFlagSet("compact", flag.ContinueOnError)
	var o options
	commonFlags(fs, &o)
	fs.StringVar(&o.date, "date", "", "date to compact (YYYY-MM-DD, default yesterday)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return execute(ingest.ModeCompaction, o)
}

func execute(mode ingest.Mode, o options) error {
	logging.Init(o.debug, o.human)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.localDir != "" {
		cfg.LocalDir = o.localDir
	}
	if o.concurrency > 0 {
		cfg.Concurrency = o.concurrency
	}
	if err := cfg.Validate(mode != ingest.ModeCompaction); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var date time.Time
	if o.date != "" {
		if date, err = time.Parse("2006-01-02", o.date); err != nil {
			return fmt.Errorf("invalid --date %q: %w", o.date, err)
		}
	}
	epoch := cfg.BackfillStart
	if o.start != "" {
		if epoch, err = time.Parse("2006-01-02", o.start); err != nil {
			return fmt.Errorf("invalid --start %q: %w", o.start, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	paths := partition.NewBuilder(cfg.Prefix)
	shapes := map[partition.Source]provider.Shape{
		partition.SourceWeather:     provider.NewWeatherShape(cfg.WeatherLocation),
		partition.SourceElectricity: provider.NewElectricityShape(cfg.Zone),
	}

	orchCfg := ingest.Config{
		Mode:        mode,
		Store:       store,
		Paths:       paths,
		Shapes:      shapes,
		Signals:     provider.Signals,
		Epoch:       epoch,
		Date:        date,
		Hour:        provider.NoHour,
		Concurrency: cfg.Concurrency,
	}
	if mode == ingest.ModeHourly {
		orchCfg.Hour = o.hour
	}
	if mode == ingest.ModeCompaction {
		orchCfg.Compactor = compact.New(store, paths, shapes)
	} else {
		orchCfg.Clients = buildClients(cfg)
	}

	report := ingest.New(orchCfg).Run(ctx)
	return report.Err()
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.LocalDir != "" {
		logging.L().Info().Str("dir", cfg.LocalDir).Msg("using local filesystem store")
		return storage.NewLocalStore(cfg.LocalDir), nil
	}
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store: %w", err)
	}
	return store, nil
}

func buildClients(cfg *config.Config) map[partition.Source]provider.Client {
	var backoff provider.Backoff = provider.FixedBackoff(cfg.RetryDelay)
	if cfg.BackoffMode == "exponential" {
		backoff = provider.ExponentialBackoff{Initial: cfg.RetryDelay, Max: time.Minute}
	}
	retry := provider.RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     backoff,
		Timeout:     cfg.HTTPTimeout,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	return map[partition.Source]provider.Client{
		partition.SourceWeather: provider.NewWeather(provider.WeatherConfig{
			APIKey:   cfg.WeatherAPIKey,
			Host:     cfg.WeatherHost,
			Location: cfg.WeatherLocation,
			Elements: cfg.WeatherElements,
		}, retry, httpClient),
		partition.SourceElectricity: provider.NewElectricity(provider.ElectricityConfig{
			APIKey:      cfg.ElectricityAPIKey,
			Host:        cfg.ElectricityHost,
			Zone:        cfg.Zone,
			Granularity: cfg.Granularity,
		}, retry, httpClient),
	}
}
