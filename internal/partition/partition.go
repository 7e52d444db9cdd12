// Package partition derives bronze-layer object keys from a data source,
// an optional signal, a calendar date, and an optional hour.
//
// Keys follow the Hive-style layout consumed by the downstream processing
// service:
//
//	bronze/weather/year=2024/month=01/day=11/data.json
//	bronze/weather/year=2024/month=01/day=11/13_30.json
//	bronze/electricity/carbon_intensity/year=2024/month=01/day=11/data.json
//
// Daily objects are named data.json. Hourly objects are named HH_30.json,
// where the _30 suffix marks "collected at minute 30 of hour HH" and is a
// fixed naming convention, not a field.
package partition

import (
	"fmt"
	"time"
)

// Source identifies a data provider family.
type Source string

const (
	// SourceWeather is the Visual Crossing weather feed.
	SourceWeather Source = "weather"
	// SourceElectricity is the Electricity Maps feed. Electricity keys carry
	// an additional signal path segment.
	SourceElectricity Source = "electricity"
)

// Builder builds partition keys under a fixed layer prefix (usually "bronze").
// The zero value is not usable; construct with NewBuilder.
type Builder struct {
	prefix string
}

// NewBuilder returns a Builder rooted at the given layer prefix.
func NewBuilder(prefix string) Builder {
	return Builder{prefix: prefix}
}

// DayPrefix returns the key prefix shared by every object of one
// (source, signal, date) partition, including the trailing slash. Listing
// under this prefix yields both hourly objects and the daily object.
func (b Builder) DayPrefix(src Source, signal string, date time.Time) string {
	base := b.prefix + "/" + string(src)
	if src == SourceElectricity {
		base += "/" + signal
	}
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/",
		base, date.Year(), int(date.Month()), date.Day())
}

// DailyKey returns the key of the daily object for (source, signal, date).
// Daily objects hold either a full-day backfill payload or a compacted day.
func (b Builder) DailyKey(src Source, signal string, date time.Time) string {
	return b.DayPrefix(src, signal, date) + "data.json"
}

// HourlyKey returns the key of the single-hour object for
// (source, signal, date, hour). The caller validates hour is in [0, 23].
func (b Builder) HourlyKey(src Source, signal string, date time.Time, hour int) string {
	return fmt.Sprintf("%s%02d_30.json", b.DayPrefix(src, signal, date), hour)
}

// IsHourlyKey reports whether key names an hourly object rather than the
// daily data.json. Used when filtering partition listings for compaction.
func IsHourlyKey(key string) bool {
	const suffix = "_30.json"
	return len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix
}
