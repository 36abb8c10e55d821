package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scoutdeck/enricher/internal/domain"
)

// AlertRepository persists repeated-failure alerts keyed by the failing
// entity.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Upsert records a failure for the given entity. A first failure inserts a
// pending alert; repeats bump seen_count, refresh last_seen_at and overwrite
// the error details with the latest occurrence.
func (r *AlertRepository) Upsert(ctx context.Context, alert *domain.ScrapeAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}

	query := `
		INSERT INTO scrape_alerts (id, entity_type, entity_id, error_type, error_message, http_status, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		ON CONFLICT (entity_type, entity_id) DO UPDATE
		SET seen_count = scrape_alerts.seen_count + 1,
		    last_seen_at = NOW(),
		    error_type = EXCLUDED.error_type,
		    error_message = EXCLUDED.error_message,
		    http_status = EXCLUDED.http_status,
		    status = 'pending'
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		alert.ID,
		alert.EntityType,
		alert.EntityID,
		alert.ErrorType,
		alert.ErrorMessage,
		alert.HTTPStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scrape alert: %w", err)
	}

	return nil
}

// ListPending returns unresolved alerts, most recently seen first.
func (r *AlertRepository) ListPending(ctx context.Context, limit int) ([]*domain.ScrapeAlert, error) {
	var alerts []*domain.ScrapeAlert
	query := `
		SELECT id, entity_type, entity_id, first_seen_at, last_seen_at,
		       seen_count, error_type, error_message, http_status, status
		FROM scrape_alerts
		WHERE status = 'pending'
		ORDER BY last_seen_at DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &alerts, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending alerts: %w", err)
	}

	return alerts, nil
}

// Resolve marks an alert as handled.
func (r *AlertRepository) Resolve(ctx context.Context, id string) error {
	query := `
		UPDATE scrape_alerts
		SET status = 'resolved'
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}

	return nil
}
