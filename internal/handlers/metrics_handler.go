package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garden-alert-service/internal/observability"
)

// MetricsHandler serves the JSON metrics snapshot at GET /metrics.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler builds a MetricsHandler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Handle serves GET /metrics.
func (h *MetricsHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// Prometheus serves GET /metrics/prometheus in the Prometheus exposition
// format, for scraping alongside the JSON snapshot.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.PrometheusHandler().ServeHTTP(c.Writer, c.Request)
}
