package models

import "time"

// Job represents one unit of work derived from a single brief submission
type Job struct {
	ID           string                 `json:"id"`
	Status       JobStatus              `json:"status"`
	Requirements map[string]interface{} `json:"requirements_json"`
	CreatedAt    time.Time              `json:"created_at"`
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// rank orders statuses; completed and cancelled are both terminal
var jobStatusRank = map[JobStatus]int{
	JobStatusOpen:       0,
	JobStatusInProgress: 1,
	JobStatusCompleted:  2,
	JobStatusCancelled:  2,
}

// Valid reports whether s is a known job status
func (s JobStatus) Valid() bool {
	_, ok := jobStatusRank[s]
	return ok
}

// Terminal reports whether no further transition is possible from s
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// CanTransition reports whether a job may move from its current status to the
// given one. Status only ever advances forward and terminal states are final.
func (j *Job) CanTransition(to JobStatus) bool {
	if !to.Valid() || j.Status.Terminal() {
		return false
	}
	return jobStatusRank[to] > jobStatusRank[j.Status]
}

// Prompt returns the brief text stored under the "prompt" requirement
func (j *Job) Prompt() string {
	p, _ := j.Requirements["prompt"].(string)
	return p
}

// Clone returns a copy of the job whose requirements map is not shared
func (j *Job) Clone() *Job {
	c := *j
	c.Requirements = make(map[string]interface{}, len(j.Requirements))
	for k, v := range j.Requirements {
		c.Requirements[k] = v
	}
	return &c
}

// NewRequirements builds the requirements bag for a brief. Extra keys are
// kept, but "prompt" always carries the brief text.
func NewRequirements(prompt string, extra map[string]interface{}) map[string]interface{} {
	req := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		req[k] = v
	}
	req["prompt"] = prompt
	return req
}

// CreateJobRequest represents the request to create a job from a brief
type CreateJobRequest struct {
	Prompt       string                 `json:"prompt"`
	Requirements map[string]interface{} `json:"requirements,omitempty"`
}

// SelectWinnerRequest represents the request to finalize a job's winner
type SelectWinnerRequest struct {
	JobID        string `json:"job_id"`
	SubmissionID string `json:"submission_id"`
}

// SelectWinnerResponse is returned once a winner has been recorded
type SelectWinnerResponse struct {
	Success bool `json:"success"`
}
