// Package winner records the submission a requester picks for a job.
package winner

import (
	"context"
	"errors"
	"fmt"

	"task-forge/core/models"
	"task-forge/core/repository"

	"go.uber.org/zap"
)

var (
	// ErrSubmissionNotFound is returned when the submission is not in the job's batch
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrWinnerAlreadySelected is returned when a different winner was already chosen
	ErrWinnerAlreadySelected = errors.New("winner already selected for job")
	// ErrJobClosed is returned when the job was cancelled
	ErrJobClosed = errors.New("job is closed")
)

// Finalizer marks one submission of a job as the winner
type Finalizer struct {
	store  *repository.SubmissionStore
	jobs   *repository.JobRepository
	logger *zap.Logger
}

// NewFinalizer creates a new finalizer
func NewFinalizer(store *repository.SubmissionStore, jobs *repository.JobRepository, logger *zap.Logger) *Finalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finalizer{
		store:  store,
		jobs:   jobs,
		logger: logger,
	}
}

// SelectWinner marks submissionID as won and every sibling as lost.
// Picking the same submission again succeeds without change; picking a
// different one once a job is decided fails with ErrWinnerAlreadySelected.
// The job is completed under the store lock, so a concurrent cancel either
// lands first and blocks the pick or is refused afterwards.
func (f *Finalizer) SelectWinner(ctx context.Context, jobID, submissionID string) (*models.SelectWinnerResponse, error) {
	alreadyDecided := false
	err := f.store.Update(jobID, func(batch []models.Submission) error {
		target := -1
		for i := range batch {
			if batch[i].ID == submissionID {
				target = i
			}
			if batch[i].Status == models.SubmissionStatusWon && batch[i].ID != submissionID {
				return fmt.Errorf("%w: %s", ErrWinnerAlreadySelected, jobID)
			}
		}
		if target < 0 {
			return fmt.Errorf("%w: %s in job %s", ErrSubmissionNotFound, submissionID, jobID)
		}
		if batch[target].Status == models.SubmissionStatusWon {
			alreadyDecided = true
			return nil
		}

		if err := f.completeJob(ctx, jobID, submissionID); err != nil {
			return err
		}

		for i := range batch {
			if i == target {
				batch[i].Status = models.SubmissionStatusWon
			} else {
				batch[i].Status = models.SubmissionStatusLost
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyDecided {
		f.logger.Info("Winner selected",
			zap.String("job_id", jobID),
			zap.String("submission_id", submissionID))
	}
	return &models.SelectWinnerResponse{Success: true}, nil
}

// completeJob advances the job to completed. Synthetic reads may fabricate
// batches for jobs that were never created; those have nothing to advance.
func (f *Finalizer) completeJob(ctx context.Context, jobID, submissionID string) error {
	_, err := f.jobs.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted, models.ReasonWinnerSelected,
		map[string]interface{}{"submission_id": submissionID})
	switch {
	case err == nil, errors.Is(err, repository.ErrJobNotFound):
		return nil
	case errors.Is(err, repository.ErrInvalidTransition):
		if job, getErr := f.jobs.GetJob(jobID); getErr == nil && job.Status == models.JobStatusCancelled {
			return fmt.Errorf("%w: %s", ErrJobClosed, jobID)
		}
		return err
	default:
		return err
	}
}
