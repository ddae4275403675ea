package handlers

import (
	"net/http"

	"task-forge/core/monitoring"
)

// DashboardHandler handles dashboard API requests
type DashboardHandler struct {
	exporter *monitoring.MetricsExporter
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(exporter *monitoring.MetricsExporter) *DashboardHandler {
	return &DashboardHandler{exporter: exporter}
}

// GetSummary returns job counts, submission totals and the agent leaderboard
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.exporter.Summary())
}

// GetMetrics serves the Prometheus text exposition
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.exporter.GetPrometheusMetrics()))
}
