package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"task-forge/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	mu       sync.Mutex
	calls    map[string]int
	inFlight int32
	maxSeen  int32
	failures int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int)}
}

func (f *fakeFetcher) GetSubmissions(_ context.Context, jobID string) ([]models.Submission, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[jobID]++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("not ready")
	}
	return []models.Submission{{ID: "s1", JobID: jobID, Status: models.SubmissionStatusPending}}, nil
}

func (f *fakeFetcher) count(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[jobID]
}

type recorder struct {
	mu      sync.Mutex
	results []string
}

func (r *recorder) record(jobID string, subs []models.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, jobID)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func TestPollerImmediateRead(t *testing.T) {
	fetcher := newFakeFetcher()
	rec := &recorder{}
	p := New(fetcher, time.Hour, rec.record, nil)
	defer p.Stop()

	p.Sync(StepShowroom, "job-1")

	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, fetcher.count("job-1"))
}

func TestPollerReadsAtInterval(t *testing.T) {
	fetcher := newFakeFetcher()
	p := New(fetcher, 10*time.Millisecond, nil, nil)
	defer p.Stop()

	p.Sync(StepShowroom, "job-1")

	require.Eventually(t, func() bool { return fetcher.count("job-1") >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPollerInactiveOutsideShowroom(t *testing.T) {
	fetcher := newFakeFetcher()
	p := New(fetcher, time.Millisecond, nil, nil)
	defer p.Stop()

	p.Sync(StepBrief, "job-1")
	p.Sync(StepShowroom, "")
	p.Sync(StepWinner, "job-1")

	_, active := p.Active()
	assert.False(t, active)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, fetcher.count("job-1"))
}

func TestPollerReenteringKeepsSingleLoop(t *testing.T) {
	fetcher := newFakeFetcher()
	p := New(fetcher, time.Hour, nil, nil)
	defer p.Stop()

	p.Sync(StepShowroom, "job-1")
	p.Sync(StepShowroom, "job-1")
	p.Sync(StepShowroom, "job-1")

	require.Eventually(t, func() bool { return fetcher.count("job-1") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fetcher.count("job-1"), "only one immediate read, so only one loop started")
}

func TestPollerBriefShowroomWinner(t *testing.T) {
	fetcher := newFakeFetcher()
	p := New(fetcher, 2*time.Millisecond, nil, nil)

	p.Sync(StepBrief, "")
	p.Sync(StepShowroom, "job-1")
	require.Eventually(t, func() bool { return fetcher.count("job-1") >= 5 }, time.Second, time.Millisecond)

	p.Sync(StepWinner, "job-1")
	_, active := p.Active()
	assert.False(t, active)

	after := fetcher.count("job-1")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, fetcher.count("job-1"), "no reads once the winner view is reached")
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.maxSeen))
}

func TestPollerSwitchingJobs(t *testing.T) {
	fetcher := newFakeFetcher()
	p := New(fetcher, time.Hour, nil, nil)
	defer p.Stop()

	p.Sync(StepShowroom, "job-1")
	p.Sync(StepShowroom, "job-2")

	jobID, active := p.Active()
	assert.True(t, active)
	assert.Equal(t, "job-2", jobID)
	require.Eventually(t, func() bool { return fetcher.count("job-2") == 1 }, time.Second, 5*time.Millisecond)
}

func TestPollerSwallowsReadFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failures = 2
	rec := &recorder{}
	p := New(fetcher, 5*time.Millisecond, rec.record, nil)
	defer p.Stop()

	p.Sync(StepShowroom, "job-1")

	require.Eventually(t, func() bool { return rec.len() >= 1 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, fetcher.count("job-1"), 3)
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := New(newFakeFetcher(), time.Millisecond, nil, nil)
	p.Stop()
	p.Sync(StepShowroom, "job-1")
	p.Stop()
	p.Stop()

	_, active := p.Active()
	assert.False(t, active)
}
