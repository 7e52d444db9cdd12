// Package ingest resolves a run mode into concrete units of work and drives
// the API clients, the object store, and the compactor.
//
// A run is one process invocation: the mode is resolved once at startup and
// selects a disjoint code path, there are no transitions within a run.
package ingest

import (
	"fmt"
	"time"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/partition"
	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/provider"
)

// Mode selects the unit-of-work plan for a run.
type Mode int

const (
	// ModeBackfill ingests full-day payloads for every date from the epoch
	// through yesterday, writing daily objects directly.
	ModeBackfill Mode = iota
	// ModeHourly ingests the previous completed hour, writing one
	// single-hour object per source/signal.
	ModeHourly
	// ModeCompaction merges yesterday's hourly objects into daily objects.
	// No API calls are made.
	ModeCompaction
)

func (m Mode) String() string {
	switch m {
	case ModeBackfill:
		return "backfill"
	case ModeHourly:
		return "hourly"
	case ModeCompaction:
		return "compaction"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// WorkItem is the unit the orchestrator dispatches to a client/writer pair.
// Items are generated at run start, consumed once, and discarded.
type WorkItem struct {
	Source partition.Source
	Signal string // set iff Source is electricity
	Date   time.Time
	Hour   int // provider.NoHour for whole-day items
}

// Ref renders the item as a stable identifier for logs and failure reports.
func (w WorkItem) Ref() string {
	ref := string(w.Source)
	if w.Signal != "" {
		ref += "/" + w.Signal
	}
	ref += "/" + w.Date.Format("2006-01-02")
	if w.Hour != provider.NoHour {
		ref += fmt.Sprintf(" hour=%02d", w.Hour)
	}
	return ref
}

// midnight truncates t to its calendar date in UTC.
func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// backfillItems enumerates one whole-day item per (date, source/signal)
// tuple across [epoch, end], weather first per date, matching the order the
// daily collection has always run in.
func backfillItems(epoch, end time.Time, signals []string) []WorkItem {
	var items []WorkItem
	for d := midnight(epoch); !d.After(midnight(end)); d = d.AddDate(0, 0, 1) {
		items = append(items, WorkItem{
			Source: partition.SourceWeather,
			Date:   d,
			Hour:   provider.NoHour,
		})
		for _, sig := range signals {
			items = append(items, WorkItem{
				Source: partition.SourceElectricity,
				Signal: sig,
				Date:   d,
				Hour:   provider.NoHour,
			})
		}
	}
	return items
}

// hourlyTarget returns the date and hour of the previous completed hour.
// Crossing midnight naturally lands on yesterday's hour 23.
func hourlyTarget(now time.Time) (time.Time, int) {
	prev := now.UTC().Add(-time.Hour)
	return midnight(prev), prev.Hour()
}

// hourlyItems enumerates one single-hour item per source/signal for the
// given target.
func hourlyItems(date time.Time, hour int, signals []string) []WorkItem {
	items := []WorkItem{{
		Source: partition.SourceWeather,
		Date:   date,
		Hour:   hour,
	}}
	for _, sig := range signals {
		items = append(items, WorkItem{
			Source: partition.SourceElectricity,
			Signal: sig,
			Date:   date,
			Hour:   hour,
		})
	}
	return items
}
