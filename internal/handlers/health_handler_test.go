package handlers

import (
	"net/url"
	"testing"
)

func TestAggregateStatusHealthyWhenAllOK(t *testing.T) {
	got := aggregateStatus(StatusOK, StatusOK, StatusOK, StatusOK)
	if got != OverallHealthy {
		t.Fatalf("expected healthy, got %v", got)
	}
}

func TestAggregateStatusUnhealthyWhenBackendErrors(t *testing.T) {
	got := aggregateStatus(StatusError, StatusOK, StatusOK, StatusOK)
	if got != OverallUnhealthy {
		t.Fatalf("expected unhealthy when backend errors, got %v", got)
	}
}

func TestAggregateStatusUnhealthyWhenWeatherErrors(t *testing.T) {
	got := aggregateStatus(StatusOK, StatusError, StatusOK, StatusOK)
	if got != OverallUnhealthy {
		t.Fatalf("expected unhealthy when weather errors, got %v", got)
	}
}

func TestAggregateStatusDegradedWhenNonBackendWeatherDegraded(t *testing.T) {
	got := aggregateStatus(StatusOK, StatusOK, StatusDegraded, StatusOK)
	if got != OverallDegraded {
		t.Fatalf("expected degraded, got %v", got)
	}
}

func TestAggregateStatusDegradedDoesNotOverrideUnhealthy(t *testing.T) {
	got := aggregateStatus(StatusError, StatusOK, StatusDegraded, StatusOK)
	if got != OverallUnhealthy {
		t.Fatalf("expected unhealthy to win over degraded, got %v", got)
	}
}

func TestWeatherProbeURLIncludesRequiredParams(t *testing.T) {
	h := &HealthChecker{weatherURL: "https://api.open-meteo.com/v1/forecast"}
	probe := h.weatherProbeURL()

	u, err := url.Parse(probe)
	if err != nil {
		t.Fatalf("unexpected error parsing probe url: %v", err)
	}
	for _, param := range []string{"latitude", "longitude", "current"} {
		if u.Query().Get(param) == "" {
			t.Fatalf("expected probe url to set %q, got %q", param, probe)
		}
	}
}

func TestWeatherProbeURLEmptyWhenUnconfigured(t *testing.T) {
	h := &HealthChecker{}
	if got := h.weatherProbeURL(); got != "" {
		t.Fatalf("expected empty probe url, got %q", got)
	}
}
