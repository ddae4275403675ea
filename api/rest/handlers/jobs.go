package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"task-forge/core/models"
	"task-forge/core/orchestration"
	"task-forge/core/repository"
	"task-forge/core/winner"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	client    orchestration.Client
	finalizer *winner.Finalizer
	jobRepo   *repository.JobRepository
	logger    *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	client orchestration.Client,
	finalizer *winner.Finalizer,
	jobRepo *repository.JobRepository,
	logger *zap.Logger,
) *JobHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobHandler{
		client:    client,
		finalizer: finalizer,
		jobRepo:   jobRepo,
		logger:    logger,
	}
}

// ListResponse wraps collections returned by the API
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// SubmitJob handles POST /v1/jobs
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req models.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// A brief in flight is not abandoned when the caller goes away
	job, err := h.client.CreateJob(context.WithoutCancel(r.Context()), req)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

func (h *JobHandler) writeCreateError(w http.ResponseWriter, err error) {
	var rejected *orchestration.UpstreamRejectedError
	switch {
	case errors.Is(err, orchestration.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:          "Orchestrator rejected the brief",
			UpstreamStatus: rejected.StatusCode,
			UpstreamBody:   rejected.Body,
		})
	case errors.Is(err, orchestration.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "Orchestrator did not respond in time")
	case errors.Is(err, orchestration.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, "Orchestrator returned an invalid response")
	case errors.Is(err, orchestration.ErrTransport):
		writeError(w, http.StatusBadGateway, "Failed to reach orchestrator")
	default:
		h.logger.Error("Failed to create job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create job")
	}
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.client.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, orchestration.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error("Failed to get job", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	var status *models.JobStatus
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		s := models.JobStatus(statusParam)
		if !s.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		status = &s
	}

	jobs := h.jobRepo.ListJobs(status, limit)
	writeJSON(w, http.StatusOK, ListResponse[*models.Job]{Items: jobs})
}

// GetSubmissions handles GET /v1/jobs/{id}/submissions. A job without
// results yet answers with an empty list rather than an error.
func (h *JobHandler) GetSubmissions(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	submissions, err := h.client.GetSubmissions(r.Context(), jobID)
	if err != nil {
		h.logger.Warn("Failed to read submissions", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to read submissions")
		return
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}

	writeJSON(w, http.StatusOK, ListResponse[models.Submission]{Items: submissions})
}

// SelectWinner handles POST /v1/jobs/{id}/winner
func (h *JobHandler) SelectWinner(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	var req models.SelectWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubmissionID == "" {
		writeError(w, http.StatusBadRequest, "submission_id is required")
		return
	}
	if req.JobID != "" && req.JobID != jobID {
		writeError(w, http.StatusBadRequest, "job_id does not match path")
		return
	}

	resp, err := h.finalizer.SelectWinner(r.Context(), jobID, req.SubmissionID)
	if err != nil {
		switch {
		case errors.Is(err, winner.ErrSubmissionNotFound):
			writeError(w, http.StatusNotFound, "Submission not found")
		case errors.Is(err, winner.ErrWinnerAlreadySelected):
			writeError(w, http.StatusConflict, "A different winner was already selected")
		case errors.Is(err, winner.ErrJobClosed):
			writeError(w, http.StatusConflict, "Job is cancelled")
		default:
			h.logger.Error("Failed to select winner", zap.String("job_id", jobID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to select winner")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CancelJob handles POST /v1/jobs/{id}/cancel
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.jobRepo.UpdateJobStatus(r.Context(), jobID, models.JobStatusCancelled, models.ReasonUserCancelled, nil)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "Job not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "Job can no longer be cancelled")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to cancel job")
		}
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// GetJobEvents handles GET /v1/jobs/{id}/events
func (h *JobHandler) GetJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	if _, err := h.jobRepo.GetJob(jobID); err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	events, err := h.jobRepo.Events().GetJobEvents(r.Context(), jobID, 100)
	if err != nil {
		h.logger.Error("Failed to fetch events", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	if events == nil {
		events = []models.JobEvent{}
	}

	writeJSON(w, http.StatusOK, ListResponse[models.JobEvent]{Items: events})
}
