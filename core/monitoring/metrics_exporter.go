package monitoring

import (
	"fmt"
	"sort"
	"strings"

	"task-forge/core/models"
	"task-forge/core/repository"
)

// MetricsExporter summarizes jobs and submissions for dashboards and
// Prometheus scraping
type MetricsExporter struct {
	jobRepo *repository.JobRepository
	store   *repository.SubmissionStore
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(jobRepo *repository.JobRepository, store *repository.SubmissionStore) *MetricsExporter {
	return &MetricsExporter{
		jobRepo: jobRepo,
		store:   store,
	}
}

// AgentStanding is one row of the win leaderboard
type AgentStanding struct {
	AgentID      string   `json:"agent_id"`
	AgentName    string   `json:"agent_name"`
	Submissions  int      `json:"submissions"`
	Wins         int      `json:"wins"`
	AverageScore *float64 `json:"average_score,omitempty"`
}

// Summary is a point-in-time view of the engine's state
type Summary struct {
	JobsByStatus        map[models.JobStatus]int        `json:"jobs_by_status"`
	TotalJobs           int                             `json:"total_jobs"`
	SubmissionsByStatus map[models.SubmissionStatus]int `json:"submissions_by_status"`
	SubmissionsByKind   map[models.ContentKind]int      `json:"submissions_by_kind"`
	TotalSubmissions    int                             `json:"total_submissions"`
	Leaderboard         []AgentStanding                 `json:"leaderboard"`
}

// Summary computes the current summary
func (me *MetricsExporter) Summary() Summary {
	summary := Summary{
		JobsByStatus:        me.jobRepo.CountByStatus(),
		SubmissionsByStatus: make(map[models.SubmissionStatus]int),
		SubmissionsByKind:   make(map[models.ContentKind]int),
	}
	for _, n := range summary.JobsByStatus {
		summary.TotalJobs += n
	}

	type tally struct {
		standing AgentStanding
		scoreSum float64
		scored   int
	}
	agents := make(map[string]*tally)

	for _, batch := range me.store.Snapshot() {
		for i := range batch {
			sub := &batch[i]
			summary.TotalSubmissions++
			summary.SubmissionsByStatus[sub.Status]++
			summary.SubmissionsByKind[sub.ContentKind()]++

			t, ok := agents[sub.AgentID]
			if !ok {
				t = &tally{standing: AgentStanding{AgentID: sub.AgentID, AgentName: sub.AgentName}}
				agents[sub.AgentID] = t
			}
			t.standing.Submissions++
			if sub.Status == models.SubmissionStatusWon {
				t.standing.Wins++
			}
			if sub.Score != nil {
				t.scoreSum += *sub.Score
				t.scored++
			}
		}
	}

	summary.Leaderboard = make([]AgentStanding, 0, len(agents))
	for _, t := range agents {
		if t.scored > 0 {
			avg := t.scoreSum / float64(t.scored)
			t.standing.AverageScore = &avg
		}
		summary.Leaderboard = append(summary.Leaderboard, t.standing)
	}
	sort.Slice(summary.Leaderboard, func(i, j int) bool {
		a, b := summary.Leaderboard[i], summary.Leaderboard[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.AgentID < b.AgentID
	})

	return summary
}

// GetPrometheusMetrics returns metrics in Prometheus text format
func (me *MetricsExporter) GetPrometheusMetrics() string {
	summary := me.Summary()
	var b strings.Builder

	b.WriteString("# HELP forge_jobs Number of jobs by status\n")
	b.WriteString("# TYPE forge_jobs gauge\n")
	for _, status := range []models.JobStatus{
		models.JobStatusOpen, models.JobStatusInProgress, models.JobStatusCompleted, models.JobStatusCancelled,
	} {
		fmt.Fprintf(&b, "forge_jobs{status=%q} %d\n", status, summary.JobsByStatus[status])
	}

	b.WriteString("# HELP forge_submissions Number of cached submissions by status\n")
	b.WriteString("# TYPE forge_submissions gauge\n")
	for _, status := range []models.SubmissionStatus{
		models.SubmissionStatusPending, models.SubmissionStatusWon, models.SubmissionStatusLost, models.SubmissionStatusRejected,
	} {
		fmt.Fprintf(&b, "forge_submissions{status=%q} %d\n", status, summary.SubmissionsByStatus[status])
	}

	b.WriteString("# HELP forge_agent_wins Winning submissions per agent\n")
	b.WriteString("# TYPE forge_agent_wins gauge\n")
	for _, standing := range summary.Leaderboard {
		fmt.Fprintf(&b, "forge_agent_wins{agent_id=%q} %d\n", standing.AgentID, standing.Wins)
	}

	return b.String()
}
