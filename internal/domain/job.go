// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// Job status values. A job moves pending -> running -> completed, with
// paused/failed/cancelled reachable as described in the orchestrator.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusPaused    = "paused"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// ScrapeJob is the persisted record of one enrichment run over the player set.
// It is mutated exclusively by the orchestrator at the end of each batch.
type ScrapeJob struct {
	ID     string `db:"id" json:"id"`
	Status string `db:"status" json:"status"`

	TotalTargets   int `db:"total_targets" json:"total_targets"`
	ProcessedCount int `db:"processed_count" json:"processed_count"`
	SuccessCount   int `db:"success_count" json:"success_count"`
	ErrorCount     int `db:"error_count" json:"error_count"`
	RetryCount     int `db:"retry_count" json:"retry_count"`
	RateLimitCount int `db:"rate_limit_count" json:"rate_limit_count"`

	ErrorRate       float64 `db:"error_rate" json:"error_rate"`
	SpeedMultiplier float64 `db:"speed_multiplier" json:"speed_multiplier"`
	SlowModeActive  bool    `db:"slow_mode_active" json:"slow_mode_active"`

	CurrentBatch int `db:"current_batch" json:"current_batch"`
	BatchSize    int `db:"batch_size" json:"batch_size"`

	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	LastProcessedAt *time.Time `db:"last_processed_at" json:"last_processed_at,omitempty"`
	Last429At       *time.Time `db:"last_429_at" json:"last_429_at,omitempty"`

	LastError *string `db:"last_error" json:"last_error,omitempty"`
}

// Progress returns the completion percentage, rounded down.
func (j *ScrapeJob) Progress() int {
	if j.TotalTargets <= 0 {
		return 0
	}
	return j.ProcessedCount * 100 / j.TotalTargets
}

// IsComplete reports whether all targets have been attempted.
func (j *ScrapeJob) IsComplete() bool {
	return j.ProcessedCount >= j.TotalTargets
}

// IsActive reports whether the job is eligible for batch processing.
func (j *ScrapeJob) IsActive() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusRunning
}
