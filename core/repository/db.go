package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection used for the job event trail
type DB struct {
	*sql.DB
}

const eventSchema = `
	CREATE TABLE IF NOT EXISTS job_events (
		id          BIGSERIAL PRIMARY KEY,
		job_id      TEXT NOT NULL,
		at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		from_status TEXT,
		to_status   TEXT NOT NULL,
		reason      TEXT NOT NULL,
		meta_json   JSONB NOT NULL DEFAULT '{}'::jsonb
	);
	CREATE INDEX IF NOT EXISTS idx_job_events_job_id_at ON job_events (job_id, at DESC);
`

// NewDB opens a Postgres connection and makes sure the event table exists
func NewDB(databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, eventSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create event schema: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}
