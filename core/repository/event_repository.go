package repository

import (
	"context"
	"sync"
	"time"

	"task-forge/core/models"
)

// EventRepository stores the audit trail of job status transitions
type EventRepository interface {
	CreateJobEvent(ctx context.Context, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error
	GetJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error)
}

// MemoryEventRepository keeps job events in process memory
type MemoryEventRepository struct {
	events map[string][]models.JobEvent
	nextID int64
	mu     sync.RWMutex
}

// NewMemoryEventRepository creates an empty in-memory event repository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[string][]models.JobEvent),
	}
}

// CreateJobEvent appends an event for a job
func (r *MemoryEventRepository) CreateJobEvent(_ context.Context, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event := models.JobEvent{
		ID:       r.nextID,
		JobID:    jobID,
		At:       time.Now().UTC(),
		ToStatus: toStatus,
		Reason:   reason,
		Meta:     meta,
	}
	if fromStatus != nil {
		from := *fromStatus
		event.FromStatus = &from
	}
	r.events[jobID] = append(r.events[jobID], event)
	return nil
}

// GetJobEvents returns a job's events, most recent first
func (r *MemoryEventRepository) GetJobEvents(_ context.Context, jobID string, limit int) ([]models.JobEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.events[jobID]
	events := make([]models.JobEvent, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		if limit > 0 && len(events) == limit {
			break
		}
		events = append(events, stored[i])
	}
	return events, nil
}
