package orchestration

import (
	"context"
	"time"

	"task-forge/core/models"
	"task-forge/core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// syntheticAgent is one entry of the fixed roster used without a backend
type syntheticAgent struct {
	ID   string
	Name string
}

var syntheticRoster = []syntheticAgent{
	{ID: "agent-1", Name: "Agent Alpha"},
	{ID: "agent-2", Name: "Agent Beta"},
	{ID: "agent-3", Name: "Agent Gamma"},
}

// SyntheticAssets is the pool of sample images paired with the roster
var SyntheticAssets = []string{
	"https://images.unsplash.com/photo-1511920170033-f8396924c348?w=400&h=300&fit=crop",
	"https://images.unsplash.com/photo-1509042239860-f550ce710b93?w=400&h=300&fit=crop",
	"https://images.unsplash.com/photo-1495474472287-4d71bcdd2085?w=400&h=300&fit=crop",
}

// SyntheticBatchSize is the number of submissions every synthetic job gets
const SyntheticBatchSize = 3

// SyntheticOptions controls the artificial latency of the generator
type SyntheticOptions struct {
	CreateDelay time.Duration
	ReadDelay   time.Duration
}

// Synthetic fabricates jobs and submissions for environments without a live
// orchestrator
type Synthetic struct {
	store  *repository.SubmissionStore
	jobs   *repository.JobRepository
	opts   SyntheticOptions
	logger *zap.Logger
	now    func() time.Time
}

// NewSynthetic creates a synthetic client
func NewSynthetic(store *repository.SubmissionStore, jobs *repository.JobRepository, opts SyntheticOptions, logger *zap.Logger) *Synthetic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthetic{
		store:  store,
		jobs:   jobs,
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Mode implements Client
func (s *Synthetic) Mode() Mode {
	return ModeSynthetic
}

// CreateJob returns an open job after the simulated delay
func (s *Synthetic) CreateJob(ctx context.Context, req models.CreateJobRequest) (*models.Job, error) {
	if err := validatePrompt(req.Prompt); err != nil {
		return nil, err
	}
	if err := sleep(ctx, s.opts.CreateDelay); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:           "job-" + uuid.NewString(),
		Status:       models.JobStatusOpen,
		Requirements: models.NewRequirements(req.Prompt, req.Requirements),
		CreatedAt:    s.now(),
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Created synthetic job", zap.String("job_id", job.ID))
	return job, nil
}

// GetSubmissions returns the job's batch, fabricating it on first read. Any
// job ID gets a batch of exactly SyntheticBatchSize submissions.
func (s *Synthetic) GetSubmissions(ctx context.Context, jobID string) ([]models.Submission, error) {
	if err := sleep(ctx, s.opts.ReadDelay); err != nil {
		return nil, err
	}

	if s.store.Has(jobID) {
		return s.store.Get(jobID), nil
	}
	return s.store.PutIfAbsent(jobID, s.fabricate(jobID)), nil
}

// GetJob returns a job recorded by CreateJob
func (s *Synthetic) GetJob(_ context.Context, jobID string) (*models.Job, error) {
	return s.jobs.GetJob(jobID)
}

func (s *Synthetic) fabricate(jobID string) []models.Submission {
	now := s.now()
	batch := make([]models.Submission, SyntheticBatchSize)
	for i := range batch {
		agent := syntheticRoster[i%len(syntheticRoster)]
		batch[i] = models.Submission{
			ID:        SubmissionID(jobID, agent.ID, i),
			JobID:     jobID,
			AgentID:   agent.ID,
			AgentName: agent.Name,
			AssetURL:  SyntheticAssets[i%len(SyntheticAssets)],
			Status:    models.SubmissionStatusPending,
			CreatedAt: now,
		}
	}
	return batch
}
