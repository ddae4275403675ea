package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"task-forge/core/models"
)

// PostgresEventRepository writes job events to Postgres. It is an audit sink
// only; nothing reads it back to rebuild state at startup.
type PostgresEventRepository struct {
	db *DB
}

// NewPostgresEventRepository creates a new Postgres-backed event repository
func NewPostgresEventRepository(db *DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// CreateJobEvent inserts a job event
func (r *PostgresEventRepository) CreateJobEvent(ctx context.Context, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	query := `
		INSERT INTO job_events (job_id, from_status, to_status, reason, meta_json)
		VALUES ($1, $2, $3, $4, $5)
	`

	var fromStatusStr *string
	if fromStatus != nil {
		s := string(*fromStatus)
		fromStatusStr = &s
	}

	metaJSON := []byte("{}")
	if meta != nil {
		var err error
		metaJSON, err = json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal event meta: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, query, jobID, fromStatusStr, string(toStatus), reason, string(metaJSON))
	return err
}

// GetJobEvents retrieves events for a job, most recent first
func (r *PostgresEventRepository) GetJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error) {
	query := `
		SELECT id, job_id, at, from_status, to_status, reason, meta_json
		FROM job_events
		WHERE job_id = $1
		ORDER BY at DESC, id DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, query, jobID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.JobEvent
	for rows.Next() {
		var event models.JobEvent
		var fromStatus sql.NullString
		var toStatus string
		var metaJSON string

		if err := rows.Scan(
			&event.ID,
			&event.JobID,
			&event.At,
			&fromStatus,
			&toStatus,
			&event.Reason,
			&metaJSON,
		); err != nil {
			return nil, err
		}

		event.ToStatus = models.JobStatus(toStatus)
		if fromStatus.Valid {
			status := models.JobStatus(fromStatus.String)
			event.FromStatus = &status
		}
		if metaJSON != "" && metaJSON != "{}" {
			if err := json.Unmarshal([]byte(metaJSON), &event.Meta); err != nil {
				return nil, fmt.Errorf("decode event meta: %w", err)
			}
		}

		events = append(events, event)
	}

	return events, rows.Err()
}
