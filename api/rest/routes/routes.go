package routes

import (
	"net/http"

	"task-forge/api/rest/handlers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Jobs      *handlers.JobHandler
	Dashboard *handlers.DashboardHandler
	Gateway   *handlers.GatewayHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, h Handlers, logger *zap.Logger) {
	if logger != nil {
		r.Use(handlers.RequestLogger(logger))
	}

	api := r.PathPrefix("/v1").Subrouter()

	// Job endpoints
	api.HandleFunc("/jobs", h.Jobs.SubmitJob).Methods("POST")
	api.HandleFunc("/jobs/{id}", h.Jobs.GetJob).Methods("GET")
	api.HandleFunc("/jobs", h.Jobs.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}/submissions", h.Jobs.GetSubmissions).Methods("GET")
	api.HandleFunc("/jobs/{id}/winner", h.Jobs.SelectWinner).Methods("POST")
	api.HandleFunc("/jobs/{id}/cancel", h.Jobs.CancelJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/events", h.Jobs.GetJobEvents).Methods("GET")

	// Dashboard endpoints
	api.HandleFunc("/dashboard", h.Dashboard.GetSummary).Methods("GET")
	r.HandleFunc("/metrics", h.Dashboard.GetMetrics).Methods("GET")

	// Same-origin relay to the orchestrator
	if h.Gateway != nil {
		r.HandleFunc("/build", h.Gateway.Build).Methods("POST")
		r.HandleFunc("/api/build", h.Gateway.Build).Methods("POST")
	}

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}
