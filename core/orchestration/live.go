package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"task-forge/core/models"
	"task-forge/core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseBytes bounds the upstream body; images arrive inline as base64
const maxResponseBytes = 64 << 20

// LiveOptions configures the upstream call
type LiveOptions struct {
	// Endpoint is the full URL briefs are posted to
	Endpoint string
	// Timeout bounds a single CreateJob round trip; zero means no bound
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Live posts briefs to the agent orchestrator and caches the returned batch.
// The orchestrator answers synchronously with every agent's output, so reads
// never go back upstream.
type Live struct {
	store  *repository.SubmissionStore
	jobs   *repository.JobRepository
	opts   LiveOptions
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewLive creates a live client
func NewLive(store *repository.SubmissionStore, jobs *repository.JobRepository, opts LiveOptions, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Live{
		store:  store,
		jobs:   jobs,
		opts:   opts,
		client: client,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Mode implements Client
func (l *Live) Mode() Mode {
	return ModeLive
}

type orchestrateRequest struct {
	Query string `json:"query"`
}

// CreateJob sends the brief upstream, normalizes the agent outputs and stores
// them under a new job ID before returning the in-progress job
func (l *Live) CreateJob(ctx context.Context, req models.CreateJobRequest) (*models.Job, error) {
	if err := validatePrompt(req.Prompt); err != nil {
		return nil, err
	}

	body, err := l.orchestrate(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	resp, err := DecodeResponse(body)
	if err != nil {
		l.logger.Error("Orchestrator returned malformed body", zap.Error(err))
		return nil, err
	}

	now := l.now()
	job := &models.Job{
		ID:           "build-" + uuid.NewString(),
		Status:       models.JobStatusInProgress,
		Requirements: models.NewRequirements(req.Prompt, req.Requirements),
		CreatedAt:    now,
	}

	submissions := NormalizeItems(job.ID, resp, now, l.logger)

	// The batch must be visible before anyone learns the job ID
	l.store.Put(job.ID, submissions)
	if err := l.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	l.logger.Info("Created build job",
		zap.String("job_id", job.ID),
		zap.Int("submissions", len(submissions)))
	return job, nil
}

// GetSubmissions reads the cached batch. An unknown job yields an empty slice.
func (l *Live) GetSubmissions(_ context.Context, jobID string) ([]models.Submission, error) {
	return l.store.Get(jobID), nil
}

// GetJob returns a job created by this client
func (l *Live) GetJob(_ context.Context, jobID string) (*models.Job, error) {
	return l.jobs.GetJob(jobID)
}

func (l *Live) orchestrate(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(orchestrateRequest{Query: prompt})
	if err != nil {
		return nil, err
	}

	callCtx := ctx
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, l.opts.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := l.client.Do(httpReq)
	if err != nil {
		return nil, l.transportError(ctx, callCtx, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, l.transportError(ctx, callCtx, err)
	}

	l.logger.Debug("Orchestrator responded",
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		l.logger.Warn("Orchestrator rejected build request",
			zap.Int("status", res.StatusCode),
			zap.String("body", truncate(string(body), 512)))
		return nil, &UpstreamRejectedError{StatusCode: res.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (l *Live) transportError(parent, call context.Context, err error) error {
	if parent.Err() == nil && errors.Is(call.Err(), context.DeadlineExceeded) {
		l.logger.Error("Orchestrator request timed out",
			zap.String("endpoint", l.opts.Endpoint),
			zap.Duration("timeout", l.opts.Timeout))
		return fmt.Errorf("%w after %s", ErrTimeout, l.opts.Timeout)
	}
	l.logger.Error("Orchestrator request failed",
		zap.String("endpoint", l.opts.Endpoint),
		zap.Error(err))
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
