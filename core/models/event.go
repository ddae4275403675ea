package models

import "time"

// JobEvent represents a state transition event for a job
type JobEvent struct {
	ID         int64                  `json:"id"`
	JobID      string                 `json:"job_id"`
	At         time.Time              `json:"at"`
	FromStatus *JobStatus             `json:"from_status,omitempty"`
	ToStatus   JobStatus              `json:"to_status"`
	Reason     string                 `json:"reason"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Event reasons
const (
	ReasonJobCreated     = "job_created"
	ReasonWinnerSelected = "winner_selected"
	ReasonUserCancelled  = "user_cancelled"
)
