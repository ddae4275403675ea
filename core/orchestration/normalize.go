package orchestration

import (
	"fmt"
	"strings"
	"time"

	"task-forge/core/models"

	"go.uber.org/zap"
)

// AgentOutputItem is one agent's output as returned by the orchestrator.
// Exactly which content field is set depends on the kind of brief.
type AgentOutputItem struct {
	AgentName  string   `json:"agent_name"`
	Image      string   `json:"image,omitempty"`
	Code       string   `json:"code,omitempty"`
	Text       string   `json:"text,omitempty"`
	Persona    string   `json:"persona,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
	StyleNotes string   `json:"style_notes,omitempty"`
	Score      *float64 `json:"score,omitempty"`

	dropped []string
}

// AgentJudgment is the judge's overall rating for one agent
type AgentJudgment struct {
	AgentName    string  `json:"agent_name"`
	Persona      string  `json:"persona,omitempty"`
	OverallScore float64 `json:"overall_score"`
	Summary      string  `json:"summary,omitempty"`
}

// OrchestratorResponse is the success body of POST /orchestrate
type OrchestratorResponse struct {
	Items     []AgentOutputItem `json:"items"`
	Judgments []AgentJudgment   `json:"judgments,omitempty"`

	dropped []string
}

// HumanizeAgentName turns an identifier such as "BuilderAgentOne" into
// "Builder Agent One" by putting a space before every capital letter.
func HumanizeAgentName(id string) string {
	var b strings.Builder
	b.Grow(len(id) + 4)
	for _, r := range id {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// SubmissionID derives a stable submission ID from its job, agent and position
func SubmissionID(jobID, agentID string, ordinal int) string {
	return fmt.Sprintf("sub-%s-%s-%d", jobID, agentID, ordinal)
}

// NormalizeImage returns a displayable image reference. Remote URLs and data
// URIs pass through; bare base64 payloads are wrapped as PNG data URIs.
func NormalizeImage(image string) string {
	image = strings.TrimSpace(image)
	switch {
	case image == "":
		return ""
	case strings.HasPrefix(image, "data:"),
		strings.HasPrefix(image, "http://"),
		strings.HasPrefix(image, "https://"),
		strings.HasPrefix(image, "/"):
		return image
	default:
		return "data:image/png;base64," + image
	}
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseCreatedAt(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

// NormalizeItems converts upstream agent outputs into pending submissions for
// jobID. Judge scores fill in for items that carry no score of their own;
// scores off the 0-5 scale are dropped.
func NormalizeItems(jobID string, resp *OrchestratorResponse, now time.Time, logger *zap.Logger) []models.Submission {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(resp.dropped) > 0 {
		logger.Warn("Ignoring unusable judgments",
			zap.String("job_id", jobID),
			zap.Strings("fields", resp.dropped))
	}

	judged := make(map[string]float64, len(resp.Judgments))
	for _, j := range resp.Judgments {
		judged[j.AgentName] = j.OverallScore
	}

	submissions := make([]models.Submission, 0, len(resp.Items))
	for i, item := range resp.Items {
		agentID := strings.TrimSpace(item.AgentName)
		if agentID == "" {
			agentID = fmt.Sprintf("agent-%d", i+1)
		}
		if len(item.dropped) > 0 {
			logger.Warn("Ignoring mistyped agent output fields",
				zap.String("job_id", jobID),
				zap.String("agent_id", agentID),
				zap.Strings("fields", item.dropped))
		}

		sub := models.Submission{
			ID:           SubmissionID(jobID, agentID, i),
			JobID:        jobID,
			AgentID:      agentID,
			AgentName:    HumanizeAgentName(agentID),
			Persona:      item.Persona,
			ProposalText: item.StyleNotes,
			Status:       models.SubmissionStatusPending,
			CreatedAt:    parseCreatedAt(item.CreatedAt, now),
		}

		switch {
		case item.Image != "":
			sub.AssetURL = NormalizeImage(item.Image)
		case item.Code != "":
			sub.Code = item.Code
		case item.Text != "":
			sub.ProposalText = item.Text
			if item.StyleNotes != "" {
				sub.ProposalText += "\n\n" + item.StyleNotes
			}
		}

		score, hasScore := 0.0, false
		if item.Score != nil {
			score, hasScore = *item.Score, true
		} else if v, ok := judged[item.AgentName]; ok {
			score, hasScore = v, true
		}
		if hasScore {
			if models.ValidScore(score) {
				sub.Score = &score
			} else {
				logger.Warn("Dropping out-of-range score",
					zap.String("job_id", jobID),
					zap.String("agent_id", agentID),
					zap.Float64("score", score))
			}
		}

		submissions = append(submissions, sub)
	}
	return submissions
}
