package domain

import "time"

// Alert resolution status values.
const (
	AlertStatusPending  = "pending"
	AlertStatusResolved = "resolved"
)

// ScrapeAlert records that a target's source URL or extraction keeps failing.
// Alerts are keyed by (entity type, entity id); repeated failures bump
// SeenCount and refresh the last-seen fields. Resolution happens externally.
type ScrapeAlert struct {
	ID           string    `db:"id" json:"id"`
	EntityType   string    `db:"entity_type" json:"entity_type"`
	EntityID     string    `db:"entity_id" json:"entity_id"`
	FirstSeenAt  time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt   time.Time `db:"last_seen_at" json:"last_seen_at"`
	SeenCount    int       `db:"seen_count" json:"seen_count"`
	ErrorType    string    `db:"error_type" json:"error_type"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	HTTPStatus   *int      `db:"http_status" json:"http_status,omitempty"`
	Status       string    `db:"status" json:"status"`
}
