package provider

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func weatherDay(hours ...int) Payload {
	recs := make([]any, len(hours))
	for i, h := range hours {
		recs[i] = map[string]any{
			"datetime": fmt.Sprintf("%02d:00:00", h),
			"temp":     20.0 + float64(h),
		}
	}
	return Payload{
		"address":         "Vietnam",
		"resolvedAddress": "Việt Nam",
		"days": []any{map[string]any{
			"datetime": "2024-01-11",
			"hours":    recs,
		}},
	}
}

func electricityDay(hours ...int) Payload {
	recs := make([]any, len(hours))
	for i, h := range hours {
		recs[i] = map[string]any{
			"datetime":        fmt.Sprintf("2024-01-11T%02d:00:00Z", h),
			"carbonIntensity": 300 + h,
		}
	}
	return Payload{
		"zone":    "VN",
		"history": recs,
		"_metadata": map[string]any{
			"signal": "carbon_intensity",
		},
	}
}

func TestWeatherShapeExtractHour(t *testing.T) {
	s := NewWeatherShape("Vietnam")
	day := weatherDay(0, 1, 13, 23)

	rec, err := s.ExtractHour(day, 13)
	if err != nil {
		t.Fatalf("ExtractHour(13) error = %v", err)
	}
	if rec["datetime"] != "13:00:00" {
		t.Errorf("datetime = %v, want 13:00:00", rec["datetime"])
	}

	_, err = s.ExtractHour(day, 7)
	if !errors.Is(err, ErrHourNotFound) {
		t.Errorf("ExtractHour(7) error = %v, want ErrHourNotFound", err)
	}
}

func TestWeatherShapeRecordHour(t *testing.T) {
	s := NewWeatherShape("Vietnam")

	if h, err := s.RecordHour(map[string]any{"datetime": "07:00:00"}); err != nil || h != 7 {
		t.Errorf("RecordHour = %d, %v", h, err)
	}
	if _, err := s.RecordHour(map[string]any{"temp": 20.0}); err == nil {
		t.Error("RecordHour on record without datetime: no error")
	}
	if _, err := s.RecordHour(map[string]any{"datetime": "25:00:00"}); err == nil {
		t.Error("RecordHour on out-of-range hour: no error")
	}
}

func TestWeatherShapeWrapHourly(t *testing.T) {
	s := NewWeatherShape("Vietnam")
	day := weatherDay(0, 13)
	date := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

	rec, err := s.ExtractHour(day, 13)
	if err != nil {
		t.Fatal(err)
	}
	out := s.WrapHourly(day, rec, "", date, 13)

	if out["address"] != "Vietnam" {
		t.Error("top-level payload fields not preserved")
	}
	hours, err := weatherHours(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 1 {
		t.Fatalf("wrapped object has %d hours, want 1", len(hours))
	}
	if hours[0].(map[string]any)["datetime"] != "13:00:00" {
		t.Errorf("wrapped record = %v", hours[0])
	}

	meta := out["_metadata"].(map[string]any)
	if meta["hour"] != "13" || meta["query_date"] != "2024-01-11" || meta["zone"] != "Vietnam" {
		t.Errorf("_metadata = %v", meta)
	}
	if _, ok := meta["signal"]; ok {
		t.Error("weather _metadata should not carry a signal")
	}

	// The source payload must stay intact for reuse.
	if orig, _ := weatherHours(day); len(orig) != 2 {
		t.Error("WrapHourly mutated the source payload")
	}
}

func TestWeatherShapeWrapDaily(t *testing.T) {
	s := NewWeatherShape("Vietnam")
	date := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

	recs := []map[string]any{
		{"datetime": "00:00:00"},
		{"datetime": "01:00:00"},
	}
	out := s.WrapDaily(weatherDay(5), recs, "", date)

	hours, err := weatherHours(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 2 {
		t.Fatalf("daily object has %d hours, want 2", len(hours))
	}
	meta := out["_metadata"].(map[string]any)
	if _, ok := meta["hour"]; ok {
		t.Error("daily _metadata should not carry an hour")
	}
}

func TestElectricityShapeExtractHour(t *testing.T) {
	s := NewElectricityShape("VN")
	day := electricityDay(0, 7, 23)

	rec, err := s.ExtractHour(day, 7)
	if err != nil {
		t.Fatalf("ExtractHour(7) error = %v", err)
	}
	if rec["datetime"] != "2024-01-11T07:00:00Z" {
		t.Errorf("datetime = %v", rec["datetime"])
	}

	_, err = s.ExtractHour(day, 12)
	if !errors.Is(err, ErrHourNotFound) {
		t.Errorf("ExtractHour(12) error = %v, want ErrHourNotFound", err)
	}
}

func TestElectricityShapeRecordHour(t *testing.T) {
	s := NewElectricityShape("VN")

	if h, err := s.RecordHour(map[string]any{"datetime": "2024-01-11T13:00:00Z"}); err != nil || h != 13 {
		t.Errorf("RecordHour = %d, %v", h, err)
	}
	if _, err := s.RecordHour(map[string]any{"datetime": "13:00:00"}); err == nil {
		t.Error("RecordHour on non-RFC3339 datetime: no error")
	}
}

func TestElectricityShapeWrapHourly(t *testing.T) {
	s := NewElectricityShape("VN")
	day := electricityDay(0, 13)
	date := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

	rec, err := s.ExtractHour(day, 13)
	if err != nil {
		t.Fatal(err)
	}
	out := s.WrapHourly(day, rec, "carbon_intensity", date, 13)

	history, err := electricityHistory(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("wrapped object has %d records, want 1", len(history))
	}
	meta := out["_metadata"].(map[string]any)
	if meta["signal"] != "carbon_intensity" || meta["hour"] != "13" || meta["zone"] != "VN" {
		t.Errorf("_metadata = %v", meta)
	}
}

func TestElectricityShapeExtractRecord(t *testing.T) {
	s := NewElectricityShape("VN")

	rec, err := s.ExtractRecord(electricityDay(9))
	if err != nil {
		t.Fatalf("ExtractRecord() error = %v", err)
	}
	if rec["datetime"] != "2024-01-11T09:00:00Z" {
		t.Errorf("record = %v", rec)
	}

	if _, err := s.ExtractRecord(Payload{"history": []any{}}); err == nil {
		t.Error("ExtractRecord on empty history: no error")
	}
	if _, err := s.ExtractRecord(Payload{"zone": "VN"}); err == nil {
		t.Error("ExtractRecord without history: no error")
	}
}

func TestMetadataHourPadding(t *testing.T) {
	m := metadata("total_load", "2024-01-11", "VN", 5)
	if m["hour"] != "05" {
		t.Errorf("hour = %v, want zero-padded 05", m["hour"])
	}
}
