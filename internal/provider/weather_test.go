package provider

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestWeatherRequestParams(t *testing.T) {
	tr := &stubTransport{respond: func(int, *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, weatherDayBody), nil
	}}
	w := newTestWeather(tr)

	if _, err := w.FetchDay(context.Background(), time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), ""); err != nil {
		t.Fatalf("FetchDay() error = %v", err)
	}

	req := tr.reqs[0]
	if req.URL.Host != "weather.example.com" || req.URL.Path != "/timeline" {
		t.Errorf("request URL = %s", req.URL)
	}
	q := req.URL.Query()
	want := map[string]string{
		"unitGroup":   "metric",
		"include":     "hours",
		"location":    "Vietnam",
		"key":         "wx-key",
		"contentType": "json",
		"elements":    "datetime,temp",
		"datetime":    "2024-01-11",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("query %s = %q, want %q", k, got, v)
		}
	}
}

func TestWeatherMissingDays(t *testing.T) {
	tr := &stubTransport{respond: func(int, *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"address":"Vietnam"}`), nil
	}}
	w := newTestWeather(tr)

	_, err := w.FetchDay(context.Background(), time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), "")
	if err == nil || !strings.Contains(err.Error(), "missing days") {
		t.Fatalf("FetchDay() error = %v, want missing days", err)
	}
}

func TestWeatherMissingHours(t *testing.T) {
	tr := &stubTransport{respond: func(int, *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"days":[{"datetime":"2024-01-11"}]}`), nil
	}}
	w := newTestWeather(tr)

	_, err := w.FetchDay(context.Background(), time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), "")
	if err == nil || !strings.Contains(err.Error(), "missing hourly records") {
		t.Fatalf("FetchDay() error = %v, want missing hourly records", err)
	}
}
