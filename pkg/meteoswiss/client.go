// Package meteoswiss is a client for the MeteoSwiss public weather endpoints.
// It retrieves the postal-code keyed JSON forecast, the current-condition CSV
// telemetry of the automatic measurement network, and the station directory,
// and normalizes them into typed records.
package meteoswiss

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	forecastURL      = "https://app-prod-ws.meteoswiss-app.ch/v1/forecast?plz=%s00&graph=true&warning=true"
	conditionURL     = "https://data.geo.admin.ch/ch.meteoschweiz.messwerte-aktuell/VQHA80.csv"
	precipitationURL = "https://data.geo.admin.ch/ch.meteoschweiz.messwerte-aktuell/VQHA98.csv"
	stationURL       = "https://data.geo.admin.ch/ch.meteoschweiz.messnetz-automatisch/ch.meteoschweiz.messnetz-automatisch_fr.csv"
	searchURL        = "https://www.meteosuisse.admin.ch/home/actualite/infos.html?ort=%s&pageIndex=0&tab=search_tab"
	forecast24URL    = "https://www.meteosuisse.admin.ch/product/output/forecast-chart/%s/fr/%s00.json"
	forecast24Ref    = "https://www.meteosuisse.admin.ch//content/meteoswiss/fr/home.mobile.meteo-products--overview.html"
	geocodeURL       = "https://nominatim.openstreetmap.org/reverse?format=jsonv2&lat=%s&lon=%s&zoom=18"
)

// The upstream service rejects requests without a browser-like header set.
var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/json",
	"Accept-Encoding": "gzip, deflate, sdch",
	"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML" +
		", like Gecko) Chrome/1337 Safari/537.36",
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds the per-client settings.
type ClientConfig struct {
	// Name is the display name echoed back in ClientResult.
	Name string
	// PostCode is the Swiss postal code (PLZ) used as the forecast key.
	PostCode string
	// Stations are the station codes current conditions are fetched for.
	Stations []string

	Timeout        time.Duration
	BreakerTimeout time.Duration
}

// Client talks to the MeteoSwiss endpoints for one location. It is not safe
// for concurrent use; callers needing that must serialize access themselves.
type Client struct {
	name     string
	postCode string
	stations []string

	client  HTTPClient
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker

	// Station directory, loaded lazily at most once per client.
	directory       map[string]Station
	directoryLoaded bool

	// Endpoint templates, overridable in tests.
	forecastURL      string
	conditionURL     string
	precipitationURL string
	stationURL       string
	searchURL        string
	forecast24URL    string
	geocodeURL       string
}

// ClientResult is the aggregate returned by FetchAll.
type ClientResult struct {
	Name                string                      `json:"name"`
	Forecast            *Forecast                   `json:"forecast,omitempty"`
	Conditions          []CurrentCondition          `json:"condition"`
	ConditionsByStation map[string]CurrentCondition `json:"condition_by_station"`
}

func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.BreakerTimeout == 0 {
		config.BreakerTimeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	breakerSettings := gobreaker.Settings{
		Name:        "meteoswiss",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	logger.Debug("Initializing MeteoSwiss client",
		zap.String("name", config.Name),
		zap.String("post_code", config.PostCode),
		zap.Strings("stations", config.Stations))

	return &Client{
		name:     config.Name,
		postCode: config.PostCode,
		stations: config.Stations,
		client:   httpClient,
		logger:   logger,
		breaker:  gobreaker.NewCircuitBreaker(breakerSettings),

		forecastURL:      forecastURL,
		conditionURL:     conditionURL,
		precipitationURL: precipitationURL,
		stationURL:       stationURL,
		searchURL:        searchURL,
		forecast24URL:    forecast24URL,
		geocodeURL:       geocodeURL,
	}
}

// FetchAll fetches the forecast and the current conditions for the configured
// stations and assembles them into a single result. A missing forecast (the
// payload carries a zero PLZ) is reported as a nil Forecast, not an error.
func (c *Client) FetchAll(ctx context.Context) (*ClientResult, error) {
	forecast, err := c.Forecast(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}

	conditions, byStation, err := c.CurrentConditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current conditions: %w", err)
	}

	return &ClientResult{
		Name:                c.name,
		Forecast:            forecast,
		Conditions:          conditions,
		ConditionsByStation: byStation,
	}, nil
}

// get performs a single GET through the circuit breaker. There are no
// retries: a failed fetch surfaces immediately and the caller decides.
func (c *Client) get(ctx context.Context, url string, extraHeaders map[string]string) ([]byte, error) {
	var body []byte

	_, execErr := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %w", err)
		}

		for k, v := range defaultHeaders {
			req.Header.Set(k, v)
		}
		for k, v := range extraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
		}

		// Setting Accept-Encoding by hand disables the transport's
		// transparent gzip handling, so decompress here.
		reader := io.Reader(resp.Body)
		if resp.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("decompressing response: %w", err)
			}
			defer gz.Close()
			reader = gz
		}

		body, err = io.ReadAll(reader)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("Request successful",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.Int("body_size", len(body)))

		return nil, nil
	})
	if execErr != nil {
		return nil, execErr
	}

	return body, nil
}
