// Package compact merges a day's hourly bronze objects into one daily
// object and removes the hourly sources.
//
// The merge is all-or-nothing per (source, signal, date): a single unreadable
// hourly object aborts the merge for that pair before anything is written or
// deleted, so no partial daily object ever replaces readable hourly data.
// Deletion after a successful write is best effort; leftover hourly objects
// are a cleanup concern, not a correctness one, because the daily object is
// authoritative once written.
package compact

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/logging"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/partition"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/provider"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/storage"
)

// Error reports a failed compaction, attributable to one
// (source, signal, date) triple. No hourly object of that triple has been
// deleted when an Error is returned.
type Error struct {
	Source partition.Source
	Signal string
	Date   time.Time
	Err    error
}

func (e *Error) Error() string {
	ref := string(e.Source)
	if e.Signal != "" {
		ref += "/" + e.Signal
	}
	return fmt.Sprintf("compact %s %s: %v", ref, e.Date.Format("2006-01-02"), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result describes one completed compaction task.
type Result struct {
	Source partition.Source
	Signal string
	Date   time.Time

	// Key is the daily object written, empty when Skipped.
	Key string
	// HoursFound is the number of hourly records merged. A value below 24
	// is a degraded but successful outcome: missing hours were simply never
	// ingested.
	HoursFound int
	// Deleted counts source objects removed, out of DeleteAttempted.
	Deleted         int
	DeleteAttempted int
	// Skipped is set when no hourly objects existed for the day.
	Skipped bool
}

// Compactor reads hourly objects, merges them, and writes daily objects.
type Compactor struct {
	store  storage.ObjectStore
	paths  partition.Builder
	shapes map[partition.Source]provider.Shape
	now    func() time.Time
}

// New creates a Compactor. shapes must contain an entry for every source
// that will be compacted.
func New(store storage.ObjectStore, paths partition.Builder, shapes map[partition.Source]provider.Shape) *Compactor {
	return &Compactor{
		store:  store,
		paths:  paths,
		shapes: shapes,
		now:    time.Now,
	}
}

type hourRecord struct {
	hour int
	rec  map[string]any
}

// CompactDay merges every hourly object of (source, signal, date) into the
// daily object and deletes the sources. The daily object is written
// unconditionally: compaction exists to produce that key, and overwriting
// makes a rerun after a crashed write-then-delete sequence recoverable.
func (c *Compactor) CompactDay(ctx context.Context, src partition.Source, signal string, date time.Time) (*Result, error) {
	shape, ok := c.shapes[src]
	if !ok {
		return nil, &Error{Source: src, Signal: signal, Date: date,
			Err: fmt.Errorf("no shape registered for source %q", src)}
	}

	dateStr := date.Format("2006-01-02")
	log := logging.FromContext(ctx).With().
		Str("source", string(src)).
		Str("signal", signal).
		Str("date", dateStr).
		Logger()

	prefix := c.paths.DayPrefix(src, signal, date)
	keys, err := c.store.ListPrefix(ctx, prefix)
	if err != nil {
		return nil, &Error{Source: src, Signal: signal, Date: date,
			Err: fmt.Errorf("list hourly objects: %w", err)}
	}

	var hourlyKeys []string
	for _, k := range keys {
		if partition.IsHourlyKey(k) {
			hourlyKeys = append(hourlyKeys, k)
		}
	}

	res := &Result{Source: src, Signal: signal, Date: date}
	if len(hourlyKeys) == 0 {
		log.Info().Msg("no hourly objects found, nothing to compact")
		res.Skipped = true
		return res, nil
	}

	dailyKey := c.paths.DailyKey(src, signal, date)
	exists, err := c.store.Exists(ctx, dailyKey)
	if err != nil {
		return nil, &Error{Source: src, Signal: signal, Date: date,
			Err: fmt.Errorf("check daily object: %w", err)}
	}
	if exists {
		// Leftovers alongside an existing daily object usually mean a prior
		// run crashed between write and delete, or an hour arrived late.
		// The rewrite below contains only the leftover hours.
		log.Warn().
			Str("key", dailyKey).
			Int("leftover_hours", len(hourlyKeys)).
			Msg("daily object already exists, overwriting")
	}

	// Read every hourly object before touching anything. A read failure
	// aborts the whole pair with nothing deleted.
	var (
		records  []hourRecord
		template provider.Payload
	)
	for _, key := range hourlyKeys {
		body, err := c.store.GetJSON(ctx, key)
		if err != nil {
			return nil, &Error{Source: src, Signal: signal, Date: date,
				Err: fmt.Errorf("read %s: %w", key, err)}
		}
		var p provider.Payload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, &Error{Source: src, Signal: signal, Date: date,
				Err: fmt.Errorf("parse %s: %w", key, err)}
		}
		rec, err := shape.ExtractRecord(p)
		if err != nil {
			return nil, &Error{Source: src, Signal: signal, Date: date,
				Err: fmt.Errorf("extract record from %s: %w", key, err)}
		}
		hour, err := shape.RecordHour(rec)
		if err != nil {
			return nil, &Error{Source: src, Signal: signal, Date: date,
				Err: fmt.Errorf("parse hour from %s: %w", key, err)}
		}
		if template == nil {
			template = p
		}
		records = append(records, hourRecord{hour: hour, rec: rec})
	}

	// Listing order is lexicographic over keys, not guaranteed to be hour
	// order; sort by the hour embedded in each record.
	sort.Slice(records, func(i, j int) bool { return records[i].hour < records[j].hour })

	recs := make([]map[string]any, len(records))
	for i, r := range records {
		recs[i] = r.rec
	}
	daily := shape.WrapDaily(template, recs, signal, date)

	body, err := json.MarshalIndent(daily, "", "  ")
	if err != nil {
		return nil, &Error{Source: src, Signal: signal, Date: date,
			Err: fmt.Errorf("encode daily object: %w", err)}
	}
	meta := map[string]string{
		"source":              string(src),
		"query_date":          dateStr,
		"ingestion_timestamp": c.now().UTC().Format(time.RFC3339),
	}
	if err := c.store.PutJSON(ctx, dailyKey, body, meta); err != nil {
		return nil, &Error{Source: src, Signal: signal, Date: date, Err: err}
	}

	res.Key = dailyKey
	res.HoursFound = len(records)
	res.DeleteAttempted = len(hourlyKeys)
	for _, key := range hourlyKeys {
		if err := c.store.DeleteIfExists(ctx, key); err != nil {
			// The daily object is already authoritative; report and move on.
			log.Error().Str("key", key).Err(err).Msg("failed to delete hourly object")
			continue
		}
		res.Deleted++
	}

	if res.HoursFound < 24 {
		log.Warn().
			Int("hours_found", res.HoursFound).
			Msg("compacted an incomplete day")
	}
	log.Info().
		Str("key", dailyKey).
		Int("hours_found", res.HoursFound).
		Int("deleted", res.Deleted).
		Int("delete_attempted", res.DeleteAttempted).
		Msg("compaction complete")

	return res, nil
}
