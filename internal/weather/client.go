// Package weather fetches current and daily-extreme conditions for a
// coordinate from Open-Meteo.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"garden-alert-service/internal/models"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// LatencyRecorder receives the duration of every fetch attempt, success or
// failure, for metrics instrumentation. May be nil.
type LatencyRecorder func(d time.Duration, ok bool)

// Client fetches weather snapshots. It never retries: a failed fetch is
// reported to the caller, which skips that coordinate until the next fetch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	onLatency  LatencyRecorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the Open-Meteo endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithLatencyRecorder attaches a metrics callback.
func WithLatencyRecorder(f LatencyRecorder) Option {
	return func(c *Client) { c.onLatency = f }
}

// NewClient builds a Client with a 10s request timeout by default.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint the client fetches from, for health checks.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type forecastResponse struct {
	Current struct {
		Temperature2m float64 `json:"temperature_2m"`
		Precipitation float64 `json:"precipitation"`
		WindSpeed10m  float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// FetchWeather retrieves the current snapshot for a coordinate. It returns
// a nil snapshot and a non-nil error on any transport failure, non-2xx
// response, or malformed body — the caller decides what to do with a miss.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error) {
	start := time.Now()
	snap, err := c.doFetch(ctx, lat, lon)
	if c.onLatency != nil {
		c.onLatency(time.Since(start), err == nil)
	}
	return snap, err
}

func (c *Client) doFetch(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,precipitation,wind_speed_10m")
	q.Set("daily", "temperature_2m_max,temperature_2m_min")
	q.Set("timezone", "auto")

	reqURL := c.baseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("weather: upstream returned status %d", resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}

	result := &models.WeatherSnapshot{
		Temperature:   fr.Current.Temperature2m,
		Precipitation: fr.Current.Precipitation,
		WindSpeed:     fr.Current.WindSpeed10m,
		ObservedAt:    time.Now(),
	}
	if len(fr.Daily.Temperature2mMax) > 0 {
		result.TemperatureMax = fr.Daily.Temperature2mMax[0]
	}
	if len(fr.Daily.Temperature2mMin) > 0 {
		result.TemperatureMin = fr.Daily.Temperature2mMin[0]
	}
	return result, nil
}
