// Package handlers exposes the service's operational HTTP surface:
// health, metrics, and the real-time subscriber upgrade endpoint.
package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"garden-alert-service/internal/channels"
)

// ServiceStatus is the per-dependency status reported by /health.
type ServiceStatus string

const (
	StatusOK       ServiceStatus = "ok"
	StatusDegraded ServiceStatus = "degraded"
	StatusError    ServiceStatus = "error"
)

// OverallStatus is the aggregate status reported by /health.
type OverallStatus string

const (
	OverallHealthy   OverallStatus = "healthy"
	OverallDegraded  OverallStatus = "degraded"
	OverallUnhealthy OverallStatus = "unhealthy"
)

// DependencyCheck reports one dependency's health.
type DependencyCheck struct {
	Status    ServiceStatus `json:"status"`
	Message   string        `json:"message,omitempty"`
	LatencyMS *int64        `json:"latency,omitempty"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status    OverallStatus              `json:"status"`
	Timestamp time.Time                  `json:"timestamp"`
	Services  map[string]DependencyCheck `json:"services"`
}

// HealthChecker probes every external dependency the service depends on.
type HealthChecker struct {
	backendURL string
	weatherURL string
	history    *channels.HistoryStore
	smsEnabled func() bool
	httpClient *http.Client
}

// NewHealthChecker builds a HealthChecker.
func NewHealthChecker(backendURL, weatherURL string, history *channels.HistoryStore, smsEnabled func() bool) *HealthChecker {
	return &HealthChecker{
		backendURL: backendURL,
		weatherURL: weatherURL,
		history:    history,
		smsEnabled: smsEnabled,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Handle serves GET /health.
func (h *HealthChecker) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	historyCheck := h.checkHistory()
	weatherCheck := h.checkHTTP(ctx, h.weatherProbeURL())
	backendCheck := h.checkHTTP(ctx, h.backendURL)
	twilioCheck := h.checkTwilio()

	services := map[string]DependencyCheck{
		"postgres":  historyCheck,
		"mongodb":   historyCheck,
		"openmeteo": weatherCheck,
		"backend":   backendCheck,
		"twilio":    twilioCheck,
	}

	overall := aggregateStatus(backendCheck.Status, weatherCheck.Status, historyCheck.Status, twilioCheck.Status)

	statusCode := http.StatusOK
	if overall != OverallHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
	})
}

// weatherProbeURL builds a minimal valid Open-Meteo request against a
// fixed sentinel coordinate (0,0), so the health check gets a real 200
// instead of Open-Meteo's 400 for a bare endpoint with no query string.
func (h *HealthChecker) weatherProbeURL() string {
	if h.weatherURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("latitude", "0")
	q.Set("longitude", "0")
	q.Set("current", "temperature_2m")
	return h.weatherURL + "?" + q.Encode()
}

func (h *HealthChecker) checkHistory() DependencyCheck {
	if h.history == nil || !h.history.IsReady() {
		return DependencyCheck{Status: StatusDegraded, Message: "history store unavailable"}
	}
	return DependencyCheck{Status: StatusOK}
}

func (h *HealthChecker) checkTwilio() DependencyCheck {
	if h.smsEnabled == nil || !h.smsEnabled() {
		return DependencyCheck{Status: StatusDegraded, Message: "sms not configured"}
	}
	return DependencyCheck{Status: StatusOK}
}

func (h *HealthChecker) checkHTTP(ctx context.Context, url string) DependencyCheck {
	if url == "" {
		return DependencyCheck{Status: StatusError, Message: "not configured"}
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DependencyCheck{Status: StatusError, Message: err.Error()}
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return DependencyCheck{Status: StatusError, Message: err.Error()}
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()
	if resp.StatusCode >= 500 {
		return DependencyCheck{Status: StatusError, Message: "upstream error", LatencyMS: &latency}
	}
	if resp.StatusCode >= 400 {
		return DependencyCheck{Status: StatusDegraded, Message: "upstream client error", LatencyMS: &latency}
	}
	return DependencyCheck{Status: StatusOK, LatencyMS: &latency}
}

// aggregateStatus implements the overall-status rule: unhealthy iff
// backend or weather (the first two arguments) is in error; else degraded
// if any dependency is non-ok; else healthy.
func aggregateStatus(backend, weather ServiceStatus, rest ...ServiceStatus) OverallStatus {
	if backend == StatusError || weather == StatusError {
		return OverallUnhealthy
	}

	all := append([]ServiceStatus{backend, weather}, rest...)
	for _, s := range all {
		if s != StatusOK {
			return OverallDegraded
		}
	}
	return OverallHealthy
}
