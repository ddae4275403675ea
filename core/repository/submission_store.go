package repository

import (
	"sync"

	"task-forge/core/models"
)

// SubmissionStore caches submission batches keyed by job ID.
// It lives for the lifetime of the process and is never persisted.
type SubmissionStore struct {
	batches map[string][]models.Submission
	mu      sync.RWMutex
}

// NewSubmissionStore creates an empty submission store
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		batches: make(map[string][]models.Submission),
	}
}

// Put replaces the batch stored for a job
func (s *SubmissionStore) Put(jobID string, submissions []models.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := models.CloneSubmissions(submissions)
	if batch == nil {
		batch = []models.Submission{}
	}
	s.batches[jobID] = batch
}

// PutIfAbsent stores the batch only when the job has none yet and returns
// whichever batch ends up stored
func (s *SubmissionStore) PutIfAbsent(jobID string, submissions []models.Submission) []models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.batches[jobID]; ok {
		return models.CloneSubmissions(existing)
	}
	batch := models.CloneSubmissions(submissions)
	if batch == nil {
		batch = []models.Submission{}
	}
	s.batches[jobID] = batch
	return models.CloneSubmissions(batch)
}

// Get returns a copy of the batch for a job. An unknown job yields an empty
// slice, so "not yet populated" and "zero results" look the same to pollers.
func (s *SubmissionStore) Get(jobID string) []models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.CloneSubmissions(s.batches[jobID])
}

// Has reports whether a batch has been written for the job
func (s *SubmissionStore) Has(jobID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.batches[jobID]
	return ok
}

// Update runs fn against the live batch while holding the write lock.
// fn may mutate elements in place; returning an error leaves the caller
// responsible for not having mutated anything.
func (s *SubmissionStore) Update(jobID string, fn func(batch []models.Submission) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.batches[jobID])
}

// Len returns the number of jobs with a stored batch
func (s *SubmissionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.batches)
}

// Snapshot returns a copy of every stored batch
func (s *SubmissionStore) Snapshot() map[string][]models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]models.Submission, len(s.batches))
	for jobID, batch := range s.batches {
		out[jobID] = models.CloneSubmissions(batch)
	}
	return out
}
