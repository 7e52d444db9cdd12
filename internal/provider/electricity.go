package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/logging"
)

// Signals is the fixed set of independently-fetched electricity metrics.
var Signals = []string{
	"carbon_intensity",
	"total_load",
	"price_day_ahead",
	"electricity_mix",
	"electricity_flows",
}

// DefaultEndpoints maps signal names to Electricity Maps API path segments.
// Signals absent from the map fall back to kebab-casing the name.
var DefaultEndpoints = map[string]string{
	"carbon_intensity":  "carbon-intensity",
	"total_load":        "total-load",
	"price_day_ahead":   "price-day-ahead",
	"electricity_mix":   "electricity-mix",
	"electricity_flows": "electricity-flows",
}

// ElectricityConfig configures the Electricity Maps client.
type ElectricityConfig struct {
	APIKey      string
	Host        string // API base URL, e.g. "https://api.electricitymaps.com/v3"
	Zone        string // zone code, e.g. "VN"
	Granularity string // temporal granularity, e.g. "hourly"
	Endpoints   map[string]string
}

// Electricity fetches per-signal day payloads from the Electricity Maps
// past-range API. One call covers one (day, signal) pair.
type Electricity struct {
	cfg ElectricityConfig
	req *requester
}

// NewElectricity creates an electricity client. client may be nil, in which
// case an HTTP client bounded by retry.Timeout is used.
func NewElectricity(cfg ElectricityConfig, retry RetryConfig, client *http.Client) *Electricity {
	if cfg.Endpoints == nil {
		cfg.Endpoints = DefaultEndpoints
	}
	return &Electricity{
		cfg: cfg,
		req: newRequester("electricity-maps", retry, client),
	}
}

func (e *Electricity) endpointPath(signal string) string {
	if path, ok := e.cfg.Endpoints[signal]; ok {
		return path
	}
	return strings.ReplaceAll(signal, "_", "-")
}

// FetchDay retrieves the day's records for one signal. The provider payload
// is returned unmodified except for an added _metadata traceability block.
func (e *Electricity) FetchDay(ctx context.Context, date time.Time, signal string) (Payload, error) {
	dateStr := date.Format("2006-01-02")
	endpoint := e.cfg.Host + "/" + e.endpointPath(signal) + "/past-range"

	build := func() (*http.Request, error) {
		q := url.Values{}
		q.Set("zone", e.cfg.Zone)
		q.Set("start", dateStr+"T00:00:00Z")
		q.Set("end", dateStr+"T23:59:59Z")
		q.Set("temporalGranularity", e.cfg.Granularity)

		req, err := http.NewRequest(http.MethodGet, endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("auth-token", e.cfg.APIKey)
		return req, nil
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Str("source", "electricity").
		Str("signal", signal).
		Str("date", dateStr).
		Msg("fetching electricity day")

	p, err := e.req.getJSON(ctx, build)
	if err != nil {
		return nil, err
	}

	if _, ok := p["history"]; !ok {
		// Some endpoints answer with "data" instead of "history"; pass the
		// raw payload through, the shape adapter deals with what it can.
		log.Warn().Str("signal", signal).Msg("electricity response has no history field")
	}

	p["_metadata"] = map[string]any{
		"signal":     signal,
		"query_date": dateStr,
		"zone":       e.cfg.Zone,
	}
	return p, nil
}
