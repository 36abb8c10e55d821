// Package scraper drives the enrichment job: it owns the persisted job
// record and processes targets batch by batch through the fetch, extract and
// reconcile pipeline.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/scoutdeck/enricher/internal/config"
	"github.com/scoutdeck/enricher/internal/database"
	"github.com/scoutdeck/enricher/internal/domain"
	"github.com/scoutdeck/enricher/internal/events"
	"github.com/scoutdeck/enricher/internal/identity"
	"github.com/scoutdeck/enricher/internal/logger"
	"github.com/scoutdeck/enricher/internal/ratelimit"
	"github.com/scoutdeck/enricher/internal/reconcile"
)

// Sentinel errors surfaced to the control layer.
var (
	// ErrNoJob means there is no active job to process.
	ErrNoJob = errors.New("no active scrape job")
	// ErrJobAlreadyActive means start was called while a job is in flight.
	ErrJobAlreadyActive = errors.New("a scrape job is already active")
	// ErrNoTargets means start found nothing to scrape.
	ErrNoTargets = errors.New("no scrape targets available")
	// ErrRateLimited means the batch was halted by the rate-limit circuit
	// breaker and the job auto-paused.
	ErrRateLimited = errors.New("rate limited: job paused")
	// ErrNoPausedJob means resume found nothing to resume.
	ErrNoPausedJob = errors.New("no paused scrape job")
)

// JobStore persists scrape jobs.
type JobStore interface {
	Create(ctx context.Context, job *domain.ScrapeJob) error
	GetActive(ctx context.Context) (*domain.ScrapeJob, error)
	GetLatest(ctx context.Context) (*domain.ScrapeJob, error)
	GetByStatus(ctx context.Context, status string) (*domain.ScrapeJob, error)
	Save(ctx context.Context, job *domain.ScrapeJob) error
	SetStatus(ctx context.Context, id, status string, lastError *string) error
}

// PlayerStore reads scrape targets and writes reconciled field updates.
type PlayerStore interface {
	CountTargets(ctx context.Context) (int, error)
	FindTargets(ctx context.Context, skip, take int) ([]*domain.Player, error)
	UpdateFields(ctx context.Context, id string, fields domain.FieldMap) error
}

// AlertStore records repeated target failures.
type AlertStore interface {
	Upsert(ctx context.Context, alert *domain.ScrapeAlert) error
}

// Fetcher retrieves one profile page.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Extractor parses a page body into candidate field values.
type Extractor interface {
	Extract(body []byte) (domain.FieldMap, error)
}

// Orchestrator coordinates batch processing over the player set. Exactly one
// ProcessNextBatch invocation is assumed to be in flight at a time; the
// trigger (cron or admin) enforces that.
type Orchestrator struct {
	jobs    JobStore
	players PlayerStore
	alerts  AlertStore
	fetcher Fetcher
	extract Extractor
	emitter events.Emitter
	logger  logger.Interface
	cfg     config.ScraperConfig
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(
	jobs JobStore,
	players PlayerStore,
	alerts AlertStore,
	fetcher Fetcher,
	extract Extractor,
	emitter events.Emitter,
	log logger.Interface,
	cfg config.ScraperConfig,
) *Orchestrator {
	return &Orchestrator{
		jobs:    jobs,
		players: players,
		alerts:  alerts,
		fetcher: fetcher,
		extract: extract,
		emitter: emitter,
		logger:  log,
		cfg:     cfg,
	}
}

// Start creates a new job over all currently eligible targets. Fails with
// ErrJobAlreadyActive if a pending or running job exists, returning that job.
func (o *Orchestrator) Start(ctx context.Context) (*domain.ScrapeJob, error) {
	existing, err := o.jobs.GetActive(ctx)
	if err == nil {
		return existing, ErrJobAlreadyActive
	}
	if !errors.Is(err, database.ErrNoActiveJob) {
		return nil, fmt.Errorf("check active job: %w", err)
	}

	total, err := o.players.CountTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("count targets: %w", err)
	}
	if total == 0 {
		return nil, ErrNoTargets
	}

	job := &domain.ScrapeJob{
		ID:              uuid.NewString(),
		Status:          domain.JobStatusPending,
		TotalTargets:    total,
		BatchSize:       o.cfg.BatchSize,
		SpeedMultiplier: 1.0,
	}

	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	o.emitter.Emit(ctx, events.Info(job.ID,
		fmt.Sprintf("scrape job created: %d targets, batch size %d", total, job.BatchSize)))
	o.logger.Info("scrape job created", "job_id", job.ID, "total_targets", total)

	return job, nil
}

// Status returns the current job snapshot: the active job if one exists,
// otherwise the most recently finished one. ErrNoJob when nothing has run.
func (o *Orchestrator) Status(ctx context.Context) (*domain.ScrapeJob, error) {
	job, err := o.jobs.GetActive(ctx)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, database.ErrNoActiveJob) {
		return nil, fmt.Errorf("load active job: %w", err)
	}

	job, err = o.jobs.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, database.ErrJobNotFound) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("load latest job: %w", err)
	}

	return job, nil
}

// Pause transitions the active job to paused.
func (o *Orchestrator) Pause(ctx context.Context) (*domain.ScrapeJob, error) {
	job, err := o.jobs.GetActive(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNoActiveJob) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("load active job: %w", err)
	}

	if err := o.jobs.SetStatus(ctx, job.ID, domain.JobStatusPaused, nil); err != nil {
		return nil, fmt.Errorf("pause job: %w", err)
	}
	job.Status = domain.JobStatusPaused

	o.emitter.Emit(ctx, events.Info(job.ID, "scrape job paused"))

	return job, nil
}

// Resume transitions the most recent paused job back to running.
func (o *Orchestrator) Resume(ctx context.Context) (*domain.ScrapeJob, error) {
	job, err := o.jobs.GetByStatus(ctx, domain.JobStatusPaused)
	if err != nil {
		if errors.Is(err, database.ErrJobNotFound) {
			return nil, ErrNoPausedJob
		}
		return nil, fmt.Errorf("load paused job: %w", err)
	}

	if err := o.jobs.SetStatus(ctx, job.ID, domain.JobStatusRunning, nil); err != nil {
		return nil, fmt.Errorf("resume job: %w", err)
	}
	job.Status = domain.JobStatusRunning

	o.emitter.Emit(ctx, events.Info(job.ID, "scrape job resumed"))

	return job, nil
}

// Cancel terminates the active or paused job. The transition is checked only
// between batches, never mid-batch.
func (o *Orchestrator) Cancel(ctx context.Context) (*domain.ScrapeJob, error) {
	job, err := o.jobs.GetActive(ctx)
	if errors.Is(err, database.ErrNoActiveJob) {
		job, err = o.jobs.GetByStatus(ctx, domain.JobStatusPaused)
		if errors.Is(err, database.ErrJobNotFound) {
			return nil, ErrNoJob
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}

	if err := o.jobs.SetStatus(ctx, job.ID, domain.JobStatusCancelled, nil); err != nil {
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	job.Status = domain.JobStatusCancelled

	o.emitter.Emit(ctx, events.Info(job.ID, "scrape job cancelled"))

	return job, nil
}

// ProcessNextBatch runs one batch of the active job and persists the updated
// job record. It is idempotent across restarts: the batch cursor is the
// processed count over a stable name ordering. Returns ErrNoJob when there is
// nothing to do and ErrRateLimited when the circuit breaker pauses the job.
func (o *Orchestrator) ProcessNextBatch(ctx context.Context) (*domain.BatchSummary, error) {
	job, err := o.jobs.GetActive(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNoActiveJob) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("load active job: %w", err)
	}

	if job.IsComplete() {
		return o.complete(ctx, job)
	}

	if job.Status == domain.JobStatusPending {
		now := time.Now()
		job.StartedAt = &now
	}
	job.Status = domain.JobStatusRunning

	targets, err := o.players.FindTargets(ctx, job.ProcessedCount, job.BatchSize)
	if err != nil {
		return nil, o.fail(ctx, job, fmt.Errorf("fetch targets: %w", err))
	}
	if len(targets) == 0 {
		return o.complete(ctx, job)
	}

	o.emitter.Emit(ctx, events.Info(job.ID,
		fmt.Sprintf("batch %d started: %d targets (%d/%d processed)",
			job.CurrentBatch+1, len(targets), job.ProcessedCount, job.TotalTargets)))

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		MaxRetries:            o.cfg.MaxRetries,
		BaseDelay:             o.cfg.BaseRetryDelay,
		MaxDelay:              o.cfg.MaxRetryDelay,
		ErrorThresholdPercent: o.cfg.ErrorThresholdPercent,
	})
	throttler := ratelimit.NewThrottler(o.cfg.MinDelay, o.cfg.MaxDelay)

	var (
		attempted   int
		successes   int
		failures    int
		retries     int
		rateLimited int
		tripped     bool
	)

	for i, target := range targets {
		outcome := o.processTarget(ctx, job, limiter, target)
		attempted++
		retries += outcome.Retries

		if outcome.Success {
			successes++
		} else {
			failures++
			if outcome.WasRateLimited {
				rateLimited++
			}
		}

		throttler.AdjustSpeed(limiter.GetMetrics().ErrorRate)

		if limiter.ConsecutiveRateLimits() >= o.cfg.MaxConsecutiveRateLimits {
			tripped = true
			break
		}

		if i < len(targets)-1 {
			minDelay, maxDelay := throttler.Delays()
			if sleepErr := identity.Sleep(ctx, minDelay, maxDelay); sleepErr != nil {
				return nil, o.fail(ctx, job, fmt.Errorf("batch interrupted: %w", sleepErr))
			}
		}
	}

	job.ProcessedCount += attempted
	job.SuccessCount += successes
	job.ErrorCount += failures
	job.RetryCount += retries
	job.RateLimitCount += rateLimited
	if job.ProcessedCount > 0 {
		job.ErrorRate = round1(float64(job.ErrorCount) / float64(job.ProcessedCount) * 100)
	}
	job.SpeedMultiplier = throttler.Multiplier()
	job.SlowModeActive = limiter.GetMetrics().ShouldSlowDown
	job.CurrentBatch++
	now := time.Now()
	job.LastProcessedAt = &now

	if tripped {
		return o.pauseRateLimited(ctx, job)
	}

	if job.IsComplete() {
		completedAt := time.Now()
		job.Status = domain.JobStatusCompleted
		job.CompletedAt = &completedAt
	}

	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	summary := summarize(job)
	o.emitter.Emit(ctx, events.Info(job.ID,
		fmt.Sprintf("batch %d finished: %d ok, %d failed, error rate %.1f%%, progress %d%%",
			job.CurrentBatch, successes, failures, job.ErrorRate, summary.Progress)))

	if summary.Completed {
		o.emitter.Emit(ctx, events.Info(job.ID, "scrape job completed"))
	}

	return summary, nil
}

// processTarget runs the retry engine around fetch+extract for one player,
// reconciles and persists the surviving fields. All failures are converted
// into the outcome; nothing propagates.
func (o *Orchestrator) processTarget(
	ctx context.Context,
	job *domain.ScrapeJob,
	limiter *ratelimit.Limiter,
	target *domain.Player,
) domain.ScrapeOutcome {
	outcome := domain.ScrapeOutcome{
		PlayerID:   target.ID,
		PlayerName: target.Name,
		URL:        target.ProfileURL,
	}

	o.emitter.Emit(ctx, events.Info(job.ID, fmt.Sprintf("scraping %s", target.Name)))

	res := ratelimit.Execute(ctx, limiter, func(ctx context.Context) (domain.FieldMap, error) {
		body, fetchErr := o.fetcher.Get(ctx, target.ProfileURL)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return o.extract.Extract(body)
	}, func(attempt int, delay time.Duration) {
		o.emitter.Emit(ctx, events.Warn(job.ID,
			fmt.Sprintf("%s: retry %d in %s", target.Name, attempt, delay.Round(time.Second))))
	})

	outcome.Retries = res.Retries
	outcome.WasRateLimited = res.WasRateLimited

	if !res.Success {
		outcome.Error = res.Err.Error()
		o.recordFailure(ctx, target, res.Err, res.WasRateLimited)
		o.emitter.Emit(ctx, events.Error(job.ID,
			fmt.Sprintf("%s: %s", target.Name, outcome.Error)))
		return outcome
	}

	fields := res.Data
	reconcile.Apply(target, fields)

	if len(fields) > 0 {
		if err := o.players.UpdateFields(ctx, target.ID, fields); err != nil {
			outcome.Error = err.Error()
			o.recordFailure(ctx, target, err, false)
			o.emitter.Emit(ctx, events.Error(job.ID,
				fmt.Sprintf("%s: persist failed: %s", target.Name, outcome.Error)))
			return outcome
		}
		for name := range fields {
			outcome.FieldsUpdated = append(outcome.FieldsUpdated, name)
		}
	}

	outcome.Success = true
	o.emitter.Emit(ctx, events.Info(job.ID,
		fmt.Sprintf("%s: %d fields updated", target.Name, len(outcome.FieldsUpdated))))

	return outcome
}

func (o *Orchestrator) recordFailure(ctx context.Context, target *domain.Player, cause error, wasRateLimited bool) {
	alert := &domain.ScrapeAlert{
		EntityType:   "player",
		EntityID:     target.ID,
		ErrorType:    classifyError(cause, wasRateLimited),
		ErrorMessage: cause.Error(),
	}

	var httpErr interface{ StatusCode() int }
	if errors.As(cause, &httpErr) {
		status := httpErr.StatusCode()
		alert.HTTPStatus = &status
	}

	if err := o.alerts.Upsert(ctx, alert); err != nil {
		o.logger.Warn("failed to record scrape alert", "player_id", target.ID, "error", err)
	}
}

func classifyError(cause error, wasRateLimited bool) string {
	switch {
	case wasRateLimited:
		return "rate_limit"
	case errors.Is(cause, context.DeadlineExceeded):
		return "timeout"
	default:
		return "fetch_error"
	}
}

// pauseRateLimited applies the circuit breaker: persist the job as paused
// with diagnostics and surface ErrRateLimited to the caller.
func (o *Orchestrator) pauseRateLimited(ctx context.Context, job *domain.ScrapeJob) (*domain.BatchSummary, error) {
	now := time.Now()
	msg := fmt.Sprintf("auto-paused after %d consecutive rate-limit failures", o.cfg.MaxConsecutiveRateLimits)

	job.Status = domain.JobStatusPaused
	job.Last429At = &now
	job.LastError = &msg

	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save paused job: %w", err)
	}

	o.emitter.Emit(ctx, events.Warn(job.ID, msg))
	o.logger.Warn("rate-limit circuit breaker tripped", "job_id", job.ID)

	return summarize(job), ErrRateLimited
}

func (o *Orchestrator) complete(ctx context.Context, job *domain.ScrapeJob) (*domain.BatchSummary, error) {
	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now

	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save completed job: %w", err)
	}

	o.emitter.Emit(ctx, events.Info(job.ID, "scrape job completed"))

	return summarize(job), nil
}

// fail marks the job failed with the orchestration error and passes the
// error through to the caller.
func (o *Orchestrator) fail(ctx context.Context, job *domain.ScrapeJob, cause error) error {
	msg := cause.Error()
	if err := o.jobs.SetStatus(ctx, job.ID, domain.JobStatusFailed, &msg); err != nil {
		o.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
	}

	o.emitter.Emit(ctx, events.Error(job.ID, fmt.Sprintf("scrape job failed: %s", msg)))

	return cause
}

func summarize(job *domain.ScrapeJob) *domain.BatchSummary {
	return &domain.BatchSummary{
		JobID:           job.ID,
		Completed:       job.Status == domain.JobStatusCompleted,
		ProcessedCount:  job.ProcessedCount,
		SuccessCount:    job.SuccessCount,
		ErrorCount:      job.ErrorCount,
		RateLimitCount:  job.RateLimitCount,
		ErrorRate:       job.ErrorRate,
		SpeedMultiplier: job.SpeedMultiplier,
		Progress:        job.Progress(),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
