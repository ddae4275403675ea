package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-forge/api/rest/handlers"
	"task-forge/core/models"
	"task-forge/core/monitoring"
	"task-forge/core/orchestration"
	"task-forge/core/repository"
	"task-forge/core/winner"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, upstream string) *mux.Router {
	t.Helper()
	store := repository.NewSubmissionStore()
	jobs := repository.NewJobRepository(nil, nil)

	var client orchestration.Client
	if upstream == "" {
		client = orchestration.NewSynthetic(store, jobs, orchestration.SyntheticOptions{}, nil)
	} else {
		client = orchestration.NewLive(store, jobs, orchestration.LiveOptions{Endpoint: upstream}, nil)
	}

	r := mux.NewRouter()
	SetupRoutes(r, Handlers{
		Jobs:      handlers.NewJobHandler(client, winner.NewFinalizer(store, jobs, nil), jobs, nil),
		Dashboard: handlers.NewDashboardHandler(monitoring.NewMetricsExporter(jobs, store)),
	}, nil)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestJobLifecycle(t *testing.T) {
	r := newTestRouter(t, "")

	rec := do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "Minimalist logo for a coffee shop"})
	require.Equal(t, http.StatusCreated, rec.Code)
	job := decode[models.Job](t, rec)
	assert.Equal(t, models.JobStatusOpen, job.Status)

	rec = do(t, r, http.MethodGet, "/v1/jobs/"+job.ID+"/submissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	subs := decode[handlers.ListResponse[models.Submission]](t, rec).Items
	require.Len(t, subs, orchestration.SyntheticBatchSize)

	rec = do(t, r, http.MethodPost, "/v1/jobs/"+job.ID+"/winner", models.SelectWinnerRequest{SubmissionID: subs[1].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.SelectWinnerResponse](t, rec).Success)

	rec = do(t, r, http.MethodGet, "/v1/jobs/"+job.ID+"/submissions", nil)
	subs = decode[handlers.ListResponse[models.Submission]](t, rec).Items
	assert.Equal(t, models.SubmissionStatusLost, subs[0].Status)
	assert.Equal(t, models.SubmissionStatusWon, subs[1].Status)
	assert.Equal(t, models.SubmissionStatusLost, subs[2].Status)

	rec = do(t, r, http.MethodGet, "/v1/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.JobStatusCompleted, decode[models.Job](t, rec).Status)

	rec = do(t, r, http.MethodPost, "/v1/jobs/"+job.ID+"/winner", models.SelectWinnerRequest{SubmissionID: subs[0].ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPost, "/v1/jobs/"+job.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/jobs/"+job.ID+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[handlers.ListResponse[models.JobEvent]](t, rec).Items
	require.Len(t, events, 2)
	assert.Equal(t, models.JobStatusCompleted, events[0].ToStatus)
}

func TestSubmitJobValidation(t *testing.T) {
	r := newTestRouter(t, "")

	rec := do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/jobs", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSubmissionAndJob(t *testing.T) {
	r := newTestRouter(t, "")

	rec := do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "logo"})
	job := decode[models.Job](t, rec)
	do(t, r, http.MethodGet, "/v1/jobs/"+job.ID+"/submissions", nil)

	rec = do(t, r, http.MethodPost, "/v1/jobs/"+job.ID+"/winner", models.SelectWinnerRequest{SubmissionID: "sub-nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/v1/jobs/"+job.ID+"/winner", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/v1/jobs/missing/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelBlocksWinner(t *testing.T) {
	r := newTestRouter(t, "")

	job := decode[models.Job](t, do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "logo"}))
	subs := decode[handlers.ListResponse[models.Submission]](t, do(t, r, http.MethodGet, "/v1/jobs/"+job.ID+"/submissions", nil)).Items

	rec := do(t, r, http.MethodPost, "/v1/jobs/"+job.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.JobStatusCancelled, decode[models.Job](t, rec).Status)

	rec = do(t, r, http.MethodPost, "/v1/jobs/"+job.ID+"/winner", models.SelectWinnerRequest{SubmissionID: subs[0].ID})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListJobsAndDashboard(t *testing.T) {
	r := newTestRouter(t, "")

	first := decode[models.Job](t, do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "one"}))
	second := decode[models.Job](t, do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "two"}))
	do(t, r, http.MethodPost, "/v1/jobs/"+first.ID+"/cancel", nil)

	rec := do(t, r, http.MethodGet, "/v1/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[handlers.ListResponse[models.Job]](t, rec).Items, 2)

	rec = do(t, r, http.MethodGet, "/v1/jobs?status=open", nil)
	items := decode[handlers.ListResponse[models.Job]](t, rec).Items
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)

	rec = do(t, r, http.MethodGet, "/v1/jobs?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[monitoring.Summary](t, rec)
	assert.Equal(t, 2, summary.TotalJobs)
	assert.Equal(t, 1, summary.JobsByStatus[models.JobStatusCancelled])

	rec = do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `forge_jobs{status="cancelled"} 1`)

	rec = do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSubmitJobUpstreamErrors(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("agents asleep"))
	}))
	defer rejecting.Close()

	r := newTestRouter(t, rejecting.URL+"/orchestrate")
	rec := do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "logo"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[handlers.ErrorResponse](t, rec)
	assert.Equal(t, http.StatusServiceUnavailable, body.UpstreamStatus)
	assert.Equal(t, "agents asleep", body.UpstreamBody)

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": "nope"}`))
	}))
	defer malformed.Close()

	r = newTestRouter(t, malformed.URL)
	rec = do(t, r, http.MethodPost, "/v1/jobs", models.CreateJobRequest{Prompt: "logo"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, decode[handlers.ErrorResponse](t, rec).UpstreamStatus)
}

func TestLiveSubmissionsEmptyForUnknownJob(t *testing.T) {
	r := newTestRouter(t, "http://127.0.0.1:1/orchestrate")

	rec := do(t, r, http.MethodGet, "/v1/jobs/never-created/submissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}
