package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchWeatherSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"current": {"temperature_2m": 21.5, "precipitation": 0.2, "wind_speed_10m": 9.1},
			"daily": {"temperature_2m_max": [27.0], "temperature_2m_min": [14.0]}
		}`))
	}))
	defer srv.Close()

	var gotLatency time.Duration
	var gotOK bool
	c := NewClient(
		WithBaseURL(srv.URL),
		WithLatencyRecorder(func(d time.Duration, ok bool) { gotLatency = d; gotOK = ok }),
	)

	snap, err := c.FetchWeather(context.Background(), 37.77, -122.41)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Temperature != 21.5 || snap.Precipitation != 0.2 || snap.WindSpeed != 9.1 {
		t.Fatalf("unexpected current fields: %+v", snap)
	}
	if snap.TemperatureMax != 27.0 || snap.TemperatureMin != 14.0 {
		t.Fatalf("unexpected daily fields: %+v", snap)
	}
	if !gotOK {
		t.Fatal("expected latency recorder to observe success")
	}
	if gotLatency < 0 {
		t.Fatal("expected non-negative latency")
	}
}

func TestFetchWeatherNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var gotOK bool
	c := NewClient(WithBaseURL(srv.URL), WithLatencyRecorder(func(d time.Duration, ok bool) { gotOK = ok }))

	snap, err := c.FetchWeather(context.Background(), 0, 0)
	if err == nil {
		t.Fatal("expected error on 503 response")
	}
	if snap != nil {
		t.Fatal("expected nil snapshot on failure")
	}
	if gotOK {
		t.Fatal("expected latency recorder to observe failure")
	}
}

func TestFetchWeatherMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	snap, err := c.FetchWeather(context.Background(), 0, 0)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if snap != nil {
		t.Fatal("expected nil snapshot on decode failure")
	}
}

func TestFetchWeatherNoRetryOnFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.FetchWeather(context.Background(), 0, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call (no retry), got %d", calls)
	}
}
