// Package orchestration turns briefs into jobs and fills the submission store,
// either from a synthetic generator or from the live agent orchestrator.
package orchestration

import (
	"context"
	"net/http"
	"strings"
	"time"

	"task-forge/config"
	"task-forge/core/models"
	"task-forge/core/repository"

	"go.uber.org/zap"
)

// Client is the consumer-facing face of the engine. One implementation is
// chosen at startup and used for every call.
type Client interface {
	CreateJob(ctx context.Context, req models.CreateJobRequest) (*models.Job, error)
	GetSubmissions(ctx context.Context, jobID string) ([]models.Submission, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	Mode() Mode
}

// Mode names the strategy behind a Client
type Mode string

const (
	ModeSynthetic Mode = "synthetic"
	ModeLive      Mode = "live"
)

// Dependencies are the shared objects a Client writes through
type Dependencies struct {
	Store      *repository.SubmissionStore
	Jobs       *repository.JobRepository
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New returns the strategy selected by cfg.UseSynthetic
func New(cfg *config.Config, deps Dependencies) Client {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.UseSynthetic {
		return NewSynthetic(deps.Store, deps.Jobs, SyntheticOptions{
			CreateDelay: cfg.SyntheticCreateDelay,
			ReadDelay:   cfg.SyntheticReadDelay,
		}, deps.Logger)
	}
	return NewLive(deps.Store, deps.Jobs, LiveOptions{
		Endpoint:   cfg.UpstreamEndpoint(),
		Timeout:    cfg.UpstreamTimeout,
		HTTPClient: deps.HTTPClient,
	}, deps.Logger)
}

func validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
