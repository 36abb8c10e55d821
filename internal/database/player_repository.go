package database

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/scoutdeck/enricher/internal/domain"
)

// ErrPlayerNotFound is returned when a partial update matches no player row.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository reads scrape targets from the platform's players table and
// writes reconciled field updates back.
type PlayerRepository struct {
	db *sqlx.DB
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// CountTargets returns how many players have a profile URL to scrape.
func (r *PlayerRepository) CountTargets(ctx context.Context) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM players
		WHERE profile_url IS NOT NULL AND profile_url <> ''
	`

	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count scrape targets: %w", err)
	}

	return count, nil
}

// FindTargets returns the next batch of scrape targets. Ordering by name is
// the batch cursor: skipping processed_count rows of a stable sort makes the
// operation resumable without a stored cursor.
func (r *PlayerRepository) FindTargets(ctx context.Context, skip, take int) ([]*domain.Player, error) {
	var players []*domain.Player
	query := `
		SELECT id, name, profile_url, date_of_birth, team_name, team_country,
		       team_loan_from, position, height, agency
		FROM players
		WHERE profile_url IS NOT NULL AND profile_url <> ''
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	if err := r.db.SelectContext(ctx, &players, query, take, skip); err != nil {
		return nil, fmt.Errorf("failed to fetch scrape targets: %w", err)
	}

	return players, nil
}

// UpdateFields writes a partial update containing only the given columns.
// An empty field map is a no-op.
func (r *PlayerRepository) UpdateFields(ctx context.Context, id string, fields domain.FieldMap) error {
	if len(fields) == 0 {
		return nil
	}

	builder := sq.Update("players").
		PlaceholderFormat(sq.Dollar).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id})

	for column, value := range fields {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build player update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check player update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}

	return nil
}
