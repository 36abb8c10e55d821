package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema owned by this service. The players table belongs to the scouting
// platform and is not created here.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scrape_jobs (
		id                UUID PRIMARY KEY,
		status            TEXT NOT NULL DEFAULT 'pending',
		total_targets     INTEGER NOT NULL DEFAULT 0,
		processed_count   INTEGER NOT NULL DEFAULT 0,
		success_count     INTEGER NOT NULL DEFAULT 0,
		error_count       INTEGER NOT NULL DEFAULT 0,
		retry_count       INTEGER NOT NULL DEFAULT 0,
		rate_limit_count  INTEGER NOT NULL DEFAULT 0,
		error_rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
		speed_multiplier  DOUBLE PRECISION NOT NULL DEFAULT 1,
		slow_mode_active  BOOLEAN NOT NULL DEFAULT FALSE,
		current_batch     INTEGER NOT NULL DEFAULT 0,
		batch_size        INTEGER NOT NULL DEFAULT 100,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		started_at        TIMESTAMPTZ,
		completed_at      TIMESTAMPTZ,
		last_processed_at TIMESTAMPTZ,
		last_429_at       TIMESTAMPTZ,
		last_error        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scrape_jobs_status
		ON scrape_jobs (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scrape_alerts (
		id            UUID PRIMARY KEY,
		entity_type   TEXT NOT NULL,
		entity_id     TEXT NOT NULL,
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		seen_count    INTEGER NOT NULL DEFAULT 1,
		error_type    TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		http_status   INTEGER,
		status        TEXT NOT NULL DEFAULT 'pending',
		UNIQUE (entity_type, entity_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scrape_alerts_status
		ON scrape_alerts (status, last_seen_at DESC)`,
}

// Migrate applies the service schema. Statements are idempotent, so running
// migrate on every startup is safe.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
