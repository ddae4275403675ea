package repository

import (
	"errors"
	"sync"
	"testing"

	"task-forge/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch(jobID string) []models.Submission {
	return []models.Submission{
		{ID: "sub-" + jobID + "-a-0", JobID: jobID, AgentID: "a", Status: models.SubmissionStatusPending},
		{ID: "sub-" + jobID + "-b-1", JobID: jobID, AgentID: "b", Status: models.SubmissionStatusPending},
	}
}

func TestSubmissionStoreGetUnknownJob(t *testing.T) {
	store := NewSubmissionStore()

	assert.Empty(t, store.Get("missing"))
	assert.False(t, store.Has("missing"))
}

func TestSubmissionStorePutOverwrites(t *testing.T) {
	store := NewSubmissionStore()
	store.Put("job-1", sampleBatch("job-1"))
	store.Put("job-1", sampleBatch("job-1")[:1])

	got := store.Get("job-1")
	require.Len(t, got, 1)
	assert.Equal(t, "sub-job-1-a-0", got[0].ID)
	assert.Equal(t, 1, store.Len())
}

func TestSubmissionStorePutEmptyBatchIsKnown(t *testing.T) {
	store := NewSubmissionStore()
	store.Put("job-1", nil)

	assert.True(t, store.Has("job-1"))
	assert.Empty(t, store.Get("job-1"))
}

func TestSubmissionStoreReturnsCopies(t *testing.T) {
	store := NewSubmissionStore()
	batch := sampleBatch("job-1")
	score := 4.0
	batch[0].Score = &score
	store.Put("job-1", batch)

	batch[0].Status = models.SubmissionStatusWon
	got := store.Get("job-1")
	got[1].Status = models.SubmissionStatusLost
	*got[0].Score = 1

	again := store.Get("job-1")
	assert.Equal(t, models.SubmissionStatusPending, again[0].Status)
	assert.Equal(t, models.SubmissionStatusPending, again[1].Status)
	assert.Equal(t, 4.0, *again[0].Score)
}

func TestSubmissionStoreUpdate(t *testing.T) {
	store := NewSubmissionStore()
	store.Put("job-1", sampleBatch("job-1"))

	err := store.Update("job-1", func(batch []models.Submission) error {
		batch[0].Status = models.SubmissionStatusWon
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusWon, store.Get("job-1")[0].Status)

	boom := errors.New("boom")
	err = store.Update("job-1", func([]models.Submission) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSubmissionStoreConcurrentAccess(t *testing.T) {
	store := NewSubmissionStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Put("job-1", sampleBatch("job-1"))
		}()
		go func() {
			defer wg.Done()
			for _, s := range store.Get("job-1") {
				assert.Equal(t, "job-1", s.JobID)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, store.Snapshot()["job-1"], 2)
}

func TestSubmissionStorePutIfAbsent(t *testing.T) {
	store := NewSubmissionStore()

	first := store.PutIfAbsent("job-1", sampleBatch("job-1"))
	require.Len(t, first, 2)

	second := store.PutIfAbsent("job-1", sampleBatch("job-1")[:1])
	assert.Len(t, second, 2)
	assert.Len(t, store.Get("job-1"), 2)
}
