package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Shape adapts the orchestrator and compactor to a source's payload layout.
// Weather payloads carry a days[].hours[] structure, electricity payloads a
// history[] array; nothing outside this interface may depend on either.
type Shape interface {
	// ExtractHour finds the single record for hour in a full-day payload.
	// Returns ErrHourNotFound when the provider has not published that hour.
	ExtractHour(day Payload, hour int) (map[string]any, error)

	// ExtractRecord returns the single embedded record of an hourly object.
	ExtractRecord(hourly Payload) (map[string]any, error)

	// RecordHour parses the hour value out of a record, for sorting merged
	// records by hour rather than by listing order.
	RecordHour(rec map[string]any) (int, error)

	// WrapHourly builds a single-hour object in the same top-level shape as
	// the full-day payload, containing only rec, plus a _metadata block.
	WrapHourly(day Payload, rec map[string]any, signal string, date time.Time, hour int) Payload

	// WrapDaily builds a daily object from sorted records, reusing template
	// for the payload fields outside the record array, plus _metadata.
	WrapDaily(template Payload, recs []map[string]any, signal string, date time.Time) Payload
}

func metadata(signal, dateStr, zone string, hour int) map[string]any {
	m := map[string]any{
		"query_date": dateStr,
		"zone":       zone,
	}
	if signal != "" {
		m["signal"] = signal
	}
	if hour != NoHour {
		m["hour"] = fmt.Sprintf("%02d", hour)
	}
	return m
}

// copyExcept shallow-copies p without the named keys.
func copyExcept(p Payload, drop ...string) Payload {
	out := make(Payload, len(p))
outer:
	for k, v := range p {
		for _, d := range drop {
			if k == d {
				continue outer
			}
		}
		out[k] = v
	}
	return out
}

// WeatherShape adapts Visual Crossing payloads (days[0].hours[]). Records
// carry a time-of-day datetime such as "13:00:00".
type WeatherShape struct {
	// Zone is the geographic zone stamped into _metadata blocks; for weather
	// this is the configured location.
	Zone string
}

// NewWeatherShape returns a Shape for weather payloads.
func NewWeatherShape(zone string) *WeatherShape {
	return &WeatherShape{Zone: zone}
}

func weatherHours(day Payload) ([]any, error) {
	days, ok := day["days"].([]any)
	if !ok || len(days) == 0 {
		return nil, fmt.Errorf("payload missing days")
	}
	first, ok := days[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload has malformed day entry")
	}
	hours, ok := first["hours"].([]any)
	if !ok {
		return nil, fmt.Errorf("payload missing hourly records")
	}
	return hours, nil
}

func (s *WeatherShape) ExtractHour(day Payload, hour int) (map[string]any, error) {
	hours, err := weatherHours(day)
	if err != nil {
		return nil, err
	}
	for _, h := range hours {
		rec, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if got, err := s.RecordHour(rec); err == nil && got == hour {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("hour %02d: %w", hour, ErrHourNotFound)
}

func (s *WeatherShape) ExtractRecord(hourly Payload) (map[string]any, error) {
	hours, err := weatherHours(hourly)
	if err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("hourly object has no records")
	}
	rec, ok := hours[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("hourly object has malformed record")
	}
	return rec, nil
}

// RecordHour parses the hour from a "HH:MM:SS" datetime field.
func (s *WeatherShape) RecordHour(rec map[string]any) (int, error) {
	dt, ok := rec["datetime"].(string)
	if !ok {
		return 0, fmt.Errorf("record missing datetime")
	}
	part, _, ok := strings.Cut(dt, ":")
	if !ok {
		return 0, fmt.Errorf("record datetime %q not HH:MM:SS", dt)
	}
	hour, err := strconv.Atoi(part)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("record datetime %q has invalid hour", dt)
	}
	return hour, nil
}

func (s *WeatherShape) WrapHourly(day Payload, rec map[string]any, signal string, date time.Time, hour int) Payload {
	dateStr := date.Format("2006-01-02")
	out := copyExcept(day, "days", "_metadata")
	out["days"] = []any{map[string]any{
		"datetime": dateStr,
		"hours":    []any{rec},
	}}
	out["_metadata"] = metadata(signal, dateStr, s.Zone, hour)
	return out
}

func (s *WeatherShape) WrapDaily(template Payload, recs []map[string]any, signal string, date time.Time) Payload {
	dateStr := date.Format("2006-01-02")
	hours := make([]any, len(recs))
	for i, r := range recs {
		hours[i] = r
	}
	out := copyExcept(template, "days", "_metadata")
	out["days"] = []any{map[string]any{
		"datetime": dateStr,
		"hours":    hours,
	}}
	out["_metadata"] = metadata(signal, dateStr, s.Zone, NoHour)
	return out
}

// ElectricityShape adapts Electricity Maps payloads (history[]). Records
// carry an RFC 3339 datetime such as "2024-01-11T13:00:00Z".
type ElectricityShape struct {
	Zone string
}

// NewElectricityShape returns a Shape for electricity payloads.
func NewElectricityShape(zone string) *ElectricityShape {
	return &ElectricityShape{Zone: zone}
}

func electricityHistory(p Payload) ([]any, error) {
	history, ok := p["history"].([]any)
	if !ok {
		return nil, fmt.Errorf("payload missing history")
	}
	return history, nil
}

func (s *ElectricityShape) ExtractHour(day Payload, hour int) (map[string]any, error) {
	history, err := electricityHistory(day)
	if err != nil {
		return nil, err
	}
	for _, h := range history {
		rec, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if got, err := s.RecordHour(rec); err == nil && got == hour {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("hour %02d: %w", hour, ErrHourNotFound)
}

func (s *ElectricityShape) ExtractRecord(hourly Payload) (map[string]any, error) {
	history, err := electricityHistory(hourly)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("hourly object has no records")
	}
	rec, ok := history[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("hourly object has malformed record")
	}
	return rec, nil
}

// RecordHour parses the hour from an RFC 3339 datetime field.
func (s *ElectricityShape) RecordHour(rec map[string]any) (int, error) {
	dt, ok := rec["datetime"].(string)
	if !ok {
		return 0, fmt.Errorf("record missing datetime")
	}
	ts, err := time.Parse(time.RFC3339, dt)
	if err != nil {
		return 0, fmt.Errorf("record datetime %q: %w", dt, err)
	}
	return ts.Hour(), nil
}

func (s *ElectricityShape) WrapHourly(day Payload, rec map[string]any, signal string, date time.Time, hour int) Payload {
	dateStr := date.Format("2006-01-02")
	out := copyExcept(day, "history", "_metadata")
	out["history"] = []any{rec}
	out["_metadata"] = metadata(signal, dateStr, s.Zone, hour)
	return out
}

func (s *ElectricityShape) WrapDaily(template Payload, recs []map[string]any, signal string, date time.Time) Payload {
	dateStr := date.Format("2006-01-02")
	history := make([]any, len(recs))
	for i, r := range recs {
		history[i] = r
	}
	out := copyExcept(template, "history", "_metadata")
	out["history"] = history
	out["_metadata"] = metadata(signal, dateStr, s.Zone, NoHour)
	return out
}
