// Package poller repeatedly reads a job's submissions while the consumer is
// waiting in the showroom.
package poller

import (
	"context"
	"sync"
	"time"

	"task-forge/core/models"

	"go.uber.org/zap"
)

// DefaultInterval is the cadence between reads
const DefaultInterval = 3 * time.Second

// Step is the consumer's current view. The poller does not own it; callers
// report it through Sync.
type Step string

const (
	StepBrief    Step = "brief"
	StepShowroom Step = "showroom"
	StepWinner   Step = "winner"
)

// Fetcher reads the current submissions of a job
type Fetcher interface {
	GetSubmissions(ctx context.Context, jobID string) ([]models.Submission, error)
}

// ResultFunc receives every successful read. It runs on the polling
// goroutine and must not call back into the Poller.
type ResultFunc func(jobID string, submissions []models.Submission)

// Poller runs at most one read loop, for the job currently in the showroom
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	onResult ResultFunc
	logger   *zap.Logger

	mu   sync.Mutex
	loop *loop
}

type loop struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a poller. A non-positive interval falls back to DefaultInterval.
func New(fetcher Fetcher, interval time.Duration, onResult ResultFunc, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		onResult: onResult,
		logger:   logger,
	}
}

// Sync reconciles the read loop with the consumer's state. Polling is active
// iff step is the showroom and a job ID is known. Re-entering for the same
// job keeps the running loop; leaving stops it before Sync returns.
func (p *Poller) Sync(step Step, jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := step == StepShowroom && jobID != ""
	if p.loop != nil {
		if want && p.loop.jobID == jobID {
			return
		}
		p.stopLocked()
	}
	if want {
		p.startLocked(jobID)
	}
}

// Stop cancels any running loop and waits for it to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
}

// Active returns the job being polled, if any
func (p *Poller) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loop == nil {
		return "", false
	}
	return p.loop.jobID, true
}

func (p *Poller) startLocked(jobID string) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{jobID: jobID, cancel: cancel, done: make(chan struct{})}
	p.loop = l

	p.logger.Debug("Polling started", zap.String("job_id", jobID), zap.Duration("interval", p.interval))
	go p.run(ctx, l)
}

func (p *Poller) stopLocked() {
	if p.loop == nil {
		return
	}
	p.loop.cancel()
	<-p.loop.done
	p.logger.Debug("Polling stopped", zap.String("job_id", p.loop.jobID))
	p.loop = nil
}

func (p *Poller) run(ctx context.Context, l *loop) {
	defer close(l.done)

	p.poll(ctx, l.jobID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, l.jobID)
		}
	}
}

func (p *Poller) poll(ctx context.Context, jobID string) {
	submissions, err := p.fetcher.GetSubmissions(ctx, jobID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		// Results are expected to be missing while agents work; keep going
		p.logger.Warn("Failed to fetch submissions", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	if p.onResult != nil {
		p.onResult(jobID, submissions)
	}
}
