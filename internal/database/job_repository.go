package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scoutdeck/enricher/internal/domain"
)

// ErrNoActiveJob is returned when no pending or running job exists.
var ErrNoActiveJob = errors.New("no active scrape job")

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("scrape job not found")

const jobColumns = `id, status, total_targets, processed_count, success_count, error_count,
	       retry_count, rate_limit_count, error_rate, speed_multiplier, slow_mode_active,
	       current_batch, batch_size, created_at, started_at, completed_at,
	       last_processed_at, last_429_at, last_error`

// JobRepository handles database operations for scrape jobs.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new scrape job.
func (r *JobRepository) Create(ctx context.Context, job *domain.ScrapeJob) error {
	query := `
		INSERT INTO scrape_jobs (id, status, total_targets, batch_size, speed_multiplier)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		job.ID,
		job.Status,
		job.TotalTargets,
		job.BatchSize,
		job.SpeedMultiplier,
	).Scan(&job.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create scrape job: %w", err)
	}

	return nil
}

// GetByID retrieves a scrape job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `
		SELECT ` + jobColumns + `
		FROM scrape_jobs
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to get scrape job: %w", err)
	}

	return &job, nil
}

// GetActive returns the newest pending or running job, or ErrNoActiveJob.
func (r *JobRepository) GetActive(ctx context.Context) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `
		SELECT ` + jobColumns + `
		FROM scrape_jobs
		WHERE status IN ('pending', 'running')
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &job, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveJob
		}
		return nil, fmt.Errorf("failed to get active scrape job: %w", err)
	}

	return &job, nil
}

// GetLatest returns the most recently created job regardless of status, or
// ErrJobNotFound when no job has ever run.
func (r *JobRepository) GetLatest(ctx context.Context) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `
		SELECT ` + jobColumns + `
		FROM scrape_jobs
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &job, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get latest scrape job: %w", err)
	}

	return &job, nil
}

// GetByStatus returns the newest job with the given status, or ErrJobNotFound.
func (r *JobRepository) GetByStatus(ctx context.Context, status string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `
		SELECT ` + jobColumns + `
		FROM scrape_jobs
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &job, query, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: status %s", ErrJobNotFound, status)
		}
		return nil, fmt.Errorf("failed to get scrape job by status: %w", err)
	}

	return &job, nil
}

// Save persists the job's mutable fields after a batch or status change.
func (r *JobRepository) Save(ctx context.Context, job *domain.ScrapeJob) error {
	query := `
		UPDATE scrape_jobs
		SET status = $2,
		    total_targets = $3,
		    processed_count = $4,
		    success_count = $5,
		    error_count = $6,
		    retry_count = $7,
		    rate_limit_count = $8,
		    error_rate = $9,
		    speed_multiplier = $10,
		    slow_mode_active = $11,
		    current_batch = $12,
		    started_at = $13,
		    completed_at = $14,
		    last_processed_at = $15,
		    last_429_at = $16,
		    last_error = $17
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.Status,
		job.TotalTargets,
		job.ProcessedCount,
		job.SuccessCount,
		job.ErrorCount,
		job.RetryCount,
		job.RateLimitCount,
		job.ErrorRate,
		job.SpeedMultiplier,
		job.SlowModeActive,
		job.CurrentBatch,
		job.StartedAt,
		job.CompletedAt,
		job.LastProcessedAt,
		job.Last429At,
		job.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to save scrape job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check scrape job save: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
	}

	return nil
}

// SetStatus updates only the job status and diagnostic error message.
func (r *JobRepository) SetStatus(ctx context.Context, id, status string, lastError *string) error {
	query := `
		UPDATE scrape_jobs
		SET status = $2,
		    last_error = COALESCE($3, last_error),
		    completed_at = CASE WHEN $2 IN ('completed', 'failed', 'cancelled') THEN NOW() ELSE completed_at END
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, lastError)
	if err != nil {
		return fmt.Errorf("failed to update scrape job status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	return nil
}
