package models

import "time"

// MaxScore is the top of the judge rating scale
const MaxScore = 5.0

// Submission represents one agent's candidate output for a job
type Submission struct {
	ID           string           `json:"id"`
	JobID        string           `json:"job_id"`
	AgentID      string           `json:"agent_id"`
	AgentName    string           `json:"agent_name,omitempty"`
	Persona      string           `json:"persona,omitempty"`
	AssetURL     string           `json:"asset_url,omitempty"`
	Code         string           `json:"code,omitempty"`
	ProposalText string           `json:"proposal_text,omitempty"`
	Score        *float64         `json:"score,omitempty"`
	Status       SubmissionStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}

// SubmissionStatus represents the state of a submission
type SubmissionStatus string

const (
	SubmissionStatusPending SubmissionStatus = "pending"
	SubmissionStatusWon     SubmissionStatus = "won"
	SubmissionStatusLost    SubmissionStatus = "lost"
	// SubmissionStatusRejected is reserved for out-of-band moderation
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// ContentKind identifies which payload a submission carries
type ContentKind string

const (
	ContentImage ContentKind = "image"
	ContentCode  ContentKind = "code"
	ContentText  ContentKind = "text"
	ContentNone  ContentKind = "none"
)

// ContentKind reports the primary payload. Image wins over code, code over
// text; a submission with none of them is still valid and renders as "no preview".
func (s *Submission) ContentKind() ContentKind {
	switch {
	case s.AssetURL != "":
		return ContentImage
	case s.Code != "":
		return ContentCode
	case s.ProposalText != "":
		return ContentText
	default:
		return ContentNone
	}
}

// ValidScore reports whether v lies on the judge scale
func ValidScore(v float64) bool {
	return v >= 0 && v <= MaxScore
}

// CloneSubmissions copies a batch so callers never share backing arrays
func CloneSubmissions(in []Submission) []Submission {
	if len(in) == 0 {
		return nil
	}
	out := make([]Submission, len(in))
	for i, s := range in {
		if s.Score != nil {
			v := *s.Score
			s.Score = &v
		}
		out[i] = s
	}
	return out
}
