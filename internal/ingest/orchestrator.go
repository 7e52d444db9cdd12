package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/compact"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/logging"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/partition"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/provider"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/storage"
)

// Config assembles an Orchestrator. Everything is resolved before the run
// begins and treated as immutable for its duration.
type Config struct {
	Mode    Mode
	Store   storage.ObjectStore
	Paths   partition.Builder
	Clients map[partition.Source]provider.Client
	Shapes  map[partition.Source]provider.Shape
	Signals []string

	// Epoch is the backfill start date. Zero means no backfill range.
	Epoch time.Time
	// Date pins the target date (hourly/compaction) or the backfill end
	// date. Zero derives it from Now.
	Date time.Time
	// Hour pins the hourly-mode target hour; provider.NoHour derives it
	// from Now.
	Hour int
	// Concurrency bounds parallel work items. Values below 1 run items
	// sequentially, which also bounds the API call rate naturally.
	Concurrency int
	// Now is the clock; nil means time.Now. Injectable for tests.
	Now func() time.Time
	// Compactor handles ModeCompaction runs.
	Compactor *compact.Compactor
}

// Orchestrator resolves the active mode into work items and drives clients
// and store. One Orchestrator performs one run.
type Orchestrator struct {
	cfg Config
	now func() time.Time
}

// New creates an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{cfg: cfg, now: now}
}

// Run executes the whole run and reports its outcome. Item failures are
// collected in the report, not returned: the only way a run aborts early is
// context cancellation, checked cooperatively between items.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	runLog := logging.NewRunLogger(o.cfg.Mode.String())
	ctx = logging.WithLogger(ctx, runLog)

	report := &Report{Mode: o.cfg.Mode}

	switch o.cfg.Mode {
	case ModeCompaction:
		o.runCompaction(ctx, report)
	default:
		o.runIngestion(ctx, report)
	}

	runLog.Info().
		Int("planned", report.Planned).
		Int("succeeded", report.Succeeded).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("run complete")
	return report
}

func (o *Orchestrator) targetDate() time.Time {
	if !o.cfg.Date.IsZero() {
		return midnight(o.cfg.Date)
	}
	return midnight(o.now().AddDate(0, 0, -1)) // yesterday
}

func (o *Orchestrator) planItems() []WorkItem {
	switch o.cfg.Mode {
	case ModeBackfill:
		return backfillItems(o.cfg.Epoch, o.targetDate(), o.cfg.Signals)
	case ModeHourly:
		date, hour := hourlyTarget(o.now())
		if !o.cfg.Date.IsZero() {
			date = midnight(o.cfg.Date)
		}
		if o.cfg.Hour != provider.NoHour {
			hour = o.cfg.Hour
		}
		return hourlyItems(date, hour, o.cfg.Signals)
	default:
		return nil
	}
}

func (o *Orchestrator) runIngestion(ctx context.Context, report *Report) {
	items := o.planItems()
	report.Planned = len(items)

	log := logging.FromContext(ctx)
	log.Info().
		Int("items", len(items)).
		Int("concurrency", o.cfg.Concurrency).
		Msg("starting ingestion")

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o.processItem(gctx, item, report)
			if n := done.Add(1); n%50 == 0 {
				log.Info().
					Int64("done", n).
					Int("total", len(items)).
					Msg("ingestion progress")
			}
			return nil // failures are recorded, never propagated
		})
	}
	g.Wait()
}

func (o *Orchestrator) processItem(ctx context.Context, item WorkItem, report *Report) {
	log := logging.FromContext(ctx).With().
		Str("source", string(item.Source)).
		Str("signal", item.Signal).
		Str("date", item.Date.Format("2006-01-02")).
		Logger()
	if item.Hour != provider.NoHour {
		log = log.With().Int("hour", item.Hour).Logger()
	}
	ctx = logging.WithLogger(ctx, log)

	if err := ctx.Err(); err != nil {
		report.fail(item.Ref(), err)
		return
	}

	var key string
	if item.Hour == provider.NoHour {
		key = o.cfg.Paths.DailyKey(item.Source, item.Signal, item.Date)
	} else {
		key = o.cfg.Paths.HourlyKey(item.Source, item.Signal, item.Date, item.Hour)
	}

	// Skip-if-exists: rerunning a partially completed range must neither
	// re-fetch (API quota) nor overwrite existing data.
	exists, err := o.cfg.Store.Exists(ctx, key)
	if err != nil {
		log.Error().Err(err).Msg("existence check failed")
		report.fail(item.Ref(), err)
		return
	}
	if exists {
		log.Info().Str("key", key).Msg("object already exists, skipping")
		report.skip()
		return
	}

	client, ok := o.cfg.Clients[item.Source]
	if !ok {
		report.fail(item.Ref(), fmt.Errorf("no client registered for source %q", item.Source))
		return
	}

	payload, err := client.FetchDay(ctx, item.Date, item.Signal)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed")
		report.fail(item.Ref(), err)
		return
	}

	if item.Hour != provider.NoHour {
		shape, ok := o.cfg.Shapes[item.Source]
		if !ok {
			report.fail(item.Ref(), fmt.Errorf("no shape registered for source %q", item.Source))
			return
		}
		rec, err := shape.ExtractHour(payload, item.Hour)
		if err != nil {
			// Typically the provider has not published this hour yet; the
			// item fails but the run continues.
			log.Error().Err(err).Msg("hour extraction failed")
			report.fail(item.Ref(), err)
			return
		}
		payload = shape.WrapHourly(payload, rec, item.Signal, item.Date, item.Hour)
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		report.fail(item.Ref(), fmt.Errorf("encode payload: %w", err))
		return
	}
	meta := map[string]string{
		"source":              string(item.Source),
		"query_date":          item.Date.Format("2006-01-02"),
		"ingestion_timestamp": o.now().UTC().Format(time.RFC3339),
	}
	if err := o.cfg.Store.PutJSON(ctx, key, body, meta); err != nil {
		log.Error().Err(err).Msg("write failed")
		report.fail(item.Ref(), err)
		return
	}

	log.Info().Str("key", key).Msg("ingested")
	report.success()
}

// runCompaction compacts yesterday (or the pinned date) for weather and
// every electricity signal, sequentially: tasks share no state, but there
// are only a handful per day and sequential order keeps logs readable.
func (o *Orchestrator) runCompaction(ctx context.Context, report *Report) {
	date := o.targetDate()

	type task struct {
		src    partition.Source
		signal string
	}
	tasks := []task{{src: partition.SourceWeather}}
	for _, sig := range o.cfg.Signals {
		tasks = append(tasks, task{src: partition.SourceElectricity, signal: sig})
	}
	report.Planned = len(tasks)

	log := logging.FromContext(ctx)
	log.Info().
		Str("date", date.Format("2006-01-02")).
		Int("tasks", len(tasks)).
		Msg("starting compaction")

	for _, tk := range tasks {
		if err := ctx.Err(); err != nil {
			report.fail(refFor(tk.src, tk.signal, date), err)
			continue
		}
		res, err := o.cfg.Compactor.CompactDay(ctx, tk.src, tk.signal, date)
		if err != nil {
			report.fail(refFor(tk.src, tk.signal, date), err)
			continue
		}
		if res.Skipped {
			report.skip()
			continue
		}
		report.success()
	}
}

func refFor(src partition.Source, signal string, date time.Time) string {
	return WorkItem{Source: src, Signal: signal, Date: date, Hour: provider.NoHour}.Ref()
}
