package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"task-forge/core/models"

	"go.uber.org/zap"
)

var (
	// ErrJobNotFound is returned when a job ID is unknown
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when a status change would move backward
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrJobExists is returned when a job ID is reused
	ErrJobExists = errors.New("job already exists")
)

// JobRepository holds jobs in memory and records their status transitions.
// The event trail is best effort: a failed write is logged and never rolls
// back the in-memory state.
type JobRepository struct {
	jobs   map[string]*models.Job
	events EventRepository
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewJobRepository creates a new job repository. A nil event repository
// falls back to an in-memory one.
func NewJobRepository(events EventRepository, logger *zap.Logger) *JobRepository {
	if events == nil {
		events = NewMemoryEventRepository()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRepository{
		jobs:   make(map[string]*models.Job),
		events: events,
		logger: logger,
	}
}

// Events returns the event repository transitions are written to
func (r *JobRepository) Events() EventRepository {
	return r.events
}

// CreateJob stores a new job and records its creation event
func (r *JobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	if _, exists := r.jobs[job.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	r.mu.Unlock()

	r.recordEvent(ctx, job.ID, nil, job.Status, models.ReasonJobCreated, nil)
	return nil
}

// GetJob retrieves a copy of a job by ID
func (r *JobRepository) GetJob(id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

// UpdateJobStatus advances a job's status and records the transition.
// Backward moves and changes out of a terminal state are refused.
func (r *JobRepository) UpdateJobStatus(ctx context.Context, jobID string, toStatus models.JobStatus, reason string, meta map[string]interface{}) (*models.Job, error) {
	r.mu.Lock()
	job, ok := r.jobs[jobID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if !job.CanTransition(toStatus) {
		from := job.Status
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, toStatus)
	}
	fromStatus := job.Status
	job.Status = toStatus
	updated := job.Clone()
	r.mu.Unlock()

	r.recordEvent(ctx, jobID, &fromStatus, toStatus, reason, meta)
	return updated, nil
}

func (r *JobRepository) recordEvent(ctx context.Context, jobID string, from *models.JobStatus, to models.JobStatus, reason string, meta map[string]interface{}) {
	if err := r.events.CreateJobEvent(ctx, jobID, from, to, reason, meta); err != nil {
		r.logger.Warn("Failed to record job event",
			zap.String("job_id", jobID),
			zap.String("reason", reason),
			zap.Error(err))
	}
}

// ListJobs lists jobs newest first, optionally filtered by status
func (r *JobRepository) ListJobs(status *models.JobStatus, limit int) []*models.Job {
	r.mu.RLock()
	jobs := make([]*models.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		if status != nil && job.Status != *status {
			continue
		}
		jobs = append(jobs, job.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs
}

// CountByStatus returns the number of jobs in each status
func (r *JobRepository) CountByStatus() map[models.JobStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.JobStatus]int)
	for _, job := range r.jobs {
		counts[job.Status]++
	}
	return counts
}
