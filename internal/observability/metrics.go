package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const latencyWindowSize = 100

// latencyWindow is a mutex-guarded ring buffer retaining at most the last
// 100 latency samples for one upstream API.
type latencyWindow struct {
	mu      sync.Mutex
	samples []float64
	next    int
	count   int
}

func (w *latencyWindow) record(seconds float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.samples == nil {
		w.samples = make([]float64, latencyWindowSize)
	}
	w.samples[w.next] = seconds
	w.next = (w.next + 1) % latencyWindowSize
	if w.count < latencyWindowSize {
		w.count++
	}
}

// LatencySnapshot summarizes a latencyWindow's current samples.
type LatencySnapshot struct {
	Count          int     `json:"count"`
	TotalLatency   float64 `json:"totalLatency"`
	AverageLatency float64 `json:"averageLatency"`
	MinLatency     float64 `json:"minLatency"`
	MaxLatency     float64 `json:"maxLatency"`
}

func (w *latencyWindow) snapshot() LatencySnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count == 0 {
		return LatencySnapshot{}
	}
	var total, min, max float64
	min = w.samples[0]
	max = w.samples[0]
	for i := 0; i < w.count; i++ {
		v := w.samples[i]
		total += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return LatencySnapshot{
		Count:          w.count,
		TotalLatency:   total,
		AverageLatency: total / float64(w.count),
		MinLatency:     min,
		MaxLatency:     max,
	}
}

// Snapshot is the JSON shape served at /metrics.
type Snapshot struct {
	Alerts     map[string]int64           `json:"alerts"`
	SMS        SMSSnapshot                `json:"sms"`
	APILatency map[string]LatencySnapshot `json:"apiLatency"`
	UptimeSecs float64                    `json:"uptime"`
	LastReset  time.Time                  `json:"lastReset"`
}

// SMSSnapshot reports outbound SMS counters and derived success rate.
type SMSSnapshot struct {
	Sent        int64   `json:"sent"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"successRate"`
}

// Metrics aggregates the counters and latency windows surfaced at
// /metrics, and mirrors them onto a Prometheus registry for scraping.
type Metrics struct {
	mu         sync.Mutex
	alerts     map[string]int64
	smsSent    int64
	smsFailed  int64
	smsSkipped int64

	openMeteoLatency *latencyWindow
	backendLatency   *latencyWindow

	startedAt time.Time
	lastReset time.Time

	registry       *prometheus.Registry
	promAlerts     *prometheus.CounterVec
	promSMSSent    prometheus.Counter
	promSMSFailed  prometheus.Counter
	promSMSSkipped prometheus.Counter
}

// NewMetrics builds an empty Metrics instance and its backing Prometheus
// registry.
func NewMetrics() *Metrics {
	now := time.Now()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	promAlerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_alerts_emitted_total",
		Help: "Total number of weather alerts emitted, by alert type.",
	}, []string{"alertType"})
	promSMSSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weather_alerts_sms_sent_total",
		Help: "Total number of SMS alerts successfully submitted.",
	})
	promSMSFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weather_alerts_sms_failed_total",
		Help: "Total number of SMS alerts that failed after retries.",
	})
	promSMSSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weather_alerts_sms_skipped_total",
		Help: "Total number of alerts for which SMS was skipped (channel disabled).",
	})
	registry.MustRegister(promAlerts, promSMSSent, promSMSFailed, promSMSSkipped)

	return &Metrics{
		alerts:           make(map[string]int64),
		openMeteoLatency: &latencyWindow{},
		backendLatency:   &latencyWindow{},
		startedAt:        now,
		lastReset:        now,
		registry:         registry,
		promAlerts:       promAlerts,
		promSMSSent:      promSMSSent,
		promSMSFailed:    promSMSFailed,
		promSMSSkipped:   promSMSSkipped,
	}
}

// RecordAlert increments the counter for alertType.
func (m *Metrics) RecordAlert(alertType string) {
	m.mu.Lock()
	m.alerts[alertType]++
	m.mu.Unlock()
	m.promAlerts.WithLabelValues(alertType).Inc()
}

// RecordSMSSent increments the successful-SMS counter.
func (m *Metrics) RecordSMSSent() {
	m.mu.Lock()
	m.smsSent++
	m.mu.Unlock()
	m.promSMSSent.Inc()
}

// RecordSMSFailed increments the failed-SMS counter.
func (m *Metrics) RecordSMSFailed() {
	m.mu.Lock()
	m.smsFailed++
	m.mu.Unlock()
	m.promSMSFailed.Inc()
}

// RecordSMSSkipped increments the skipped-SMS counter (disabled channel).
func (m *Metrics) RecordSMSSkipped() {
	m.mu.Lock()
	m.smsSkipped++
	m.mu.Unlock()
	m.promSMSSkipped.Inc()
}

// RecordOpenMeteoLatency records one weather-fetch round-trip duration.
func (m *Metrics) RecordOpenMeteoLatency(d time.Duration) {
	m.openMeteoLatency.record(d.Seconds())
}

// RecordBackendLatency records one backend-fetch round-trip duration.
func (m *Metrics) RecordBackendLatency(d time.Duration) {
	m.backendLatency.record(d.Seconds())
}

// Snapshot renders the current metrics state for the /metrics endpoint.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	alertsCopy := make(map[string]int64, len(m.alerts))
	for k, v := range m.alerts {
		alertsCopy[k] = v
	}
	sent, failed := m.smsSent, m.smsFailed
	lastReset := m.lastReset
	m.mu.Unlock()

	var successRate float64
	if total := sent + failed; total > 0 {
		successRate = roundTo2(float64(sent) / float64(total))
	}

	return Snapshot{
		Alerts: alertsCopy,
		SMS: SMSSnapshot{
			Sent:        sent,
			Failed:      failed,
			SuccessRate: successRate,
		},
		APILatency: map[string]LatencySnapshot{
			"openmeteo": m.openMeteoLatency.snapshot(),
			"backend":   m.backendLatency.snapshot(),
		},
		UptimeSecs: time.Since(m.startedAt).Seconds(),
		LastReset:  lastReset,
	}
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// PrometheusHandler exposes the Prometheus scrape endpoint.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
