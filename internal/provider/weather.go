package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/logging"
)

// WeatherConfig configures the Visual Crossing timeline client.
type WeatherConfig struct {
	APIKey   string
	Host     string // timeline endpoint base URL
	Location string // e.g. "Vietnam"
	Elements string // comma-separated element list, e.g. "datetime,temp,humidity"
}

// Weather fetches full-day hourly weather payloads from the Visual Crossing
// timeline API. One call returns all 24 hours of a day.
type Weather struct {
	cfg WeatherConfig
	req *requester
}

// NewWeather creates a weather client. client may be nil, in which case an
// HTTP client bounded by retry.Timeout is used.
func NewWeather(cfg WeatherConfig, retry RetryConfig, client *http.Client) *Weather {
	return &Weather{
		cfg: cfg,
		req: newRequester("visual-crossing", retry, client),
	}
}

// FetchDay retrieves the hourly weather payload for date. signal is ignored.
// The payload is returned exactly as the provider shaped it.
func (w *Weather) FetchDay(ctx context.Context, date time.Time, _ string) (Payload, error) {
	dateStr := date.Format("2006-01-02")

	build := func() (*http.Request, error) {
		q := url.Values{}
		q.Set("unitGroup", "metric")
		q.Set("include", "hours") // hourly records, not just day aggregates
		q.Set("location", w.cfg.Location)
		q.Set("key", w.cfg.APIKey)
		q.Set("contentType", "json")
		q.Set("elements", w.cfg.Elements)
		q.Set("datetime", dateStr)
		return http.NewRequest(http.MethodGet, w.cfg.Host+"?"+q.Encode(), nil)
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Str("source", "weather").
		Str("date", dateStr).
		Msg("fetching weather day")

	p, err := w.req.getJSON(ctx, build)
	if err != nil {
		return nil, err
	}

	// Minimal structural validation: merging and hour extraction need the
	// days[0].hours array to be present.
	days, ok := p["days"].([]any)
	if !ok || len(days) == 0 {
		return nil, fmt.Errorf("weather response for %s missing days", dateStr)
	}
	day, ok := days[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("weather response for %s has malformed day entry", dateStr)
	}
	if _, ok := day["hours"].([]any); !ok {
		return nil, fmt.Errorf("weather response for %s missing hourly records", dateStr)
	}
	return p, nil
}
