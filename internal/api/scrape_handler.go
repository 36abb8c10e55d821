// Package api exposes the scrape job control surface over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scoutdeck/enricher/internal/domain"
	"github.com/scoutdeck/enricher/internal/logger"
	"github.com/scoutdeck/enricher/internal/scraper"
)

// batchBudget bounds one process-next-batch invocation. The orchestrator
// itself sleeps between targets, so a full batch can legitimately take
// minutes.
const batchBudget = 300 * time.Second

// JobController is the slice of the orchestrator the handlers need.
type JobController interface {
	Start(ctx context.Context) (*domain.ScrapeJob, error)
	Status(ctx context.Context) (*domain.ScrapeJob, error)
	Pause(ctx context.Context) (*domain.ScrapeJob, error)
	Resume(ctx context.Context) (*domain.ScrapeJob, error)
	Cancel(ctx context.Context) (*domain.ScrapeJob, error)
	ProcessNextBatch(ctx context.Context) (*domain.BatchSummary, error)
}

// ScrapeHandler handles scrape job control requests.
type ScrapeHandler struct {
	jobs   JobController
	logger logger.Interface
}

// NewScrapeHandler creates a new scrape handler.
func NewScrapeHandler(jobs JobController, log logger.Interface) *ScrapeHandler {
	return &ScrapeHandler{jobs: jobs, logger: log}
}

// Start handles POST /api/v1/scrape/start.
func (h *ScrapeHandler) Start(c *gin.Context) {
	job, err := h.jobs.Start(c.Request.Context())

	switch {
	case errors.Is(err, scraper.ErrJobAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": "a scrape job is already active", "job": job})
	case errors.Is(err, scraper.ErrNoTargets):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no scrape targets available"})
	case err != nil:
		h.logger.Error("failed to start scrape job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start scrape job"})
	default:
		c.JSON(http.StatusCreated, gin.H{"job": job})
	}
}

// Status handles GET /api/v1/scrape/status.
func (h *ScrapeHandler) Status(c *gin.Context) {
	job, err := h.jobs.Status(c.Request.Context())

	switch {
	case errors.Is(err, scraper.ErrNoJob):
		c.JSON(http.StatusNotFound, gin.H{"error": "no scrape job found"})
	case err != nil:
		h.logger.Error("failed to load scrape status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scrape status"})
	default:
		c.JSON(http.StatusOK, gin.H{"job": job})
	}
}

// Process handles POST /api/v1/scrape/process.
func (h *ScrapeHandler) Process(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), batchBudget)
	defer cancel()

	summary, err := h.jobs.ProcessNextBatch(ctx)

	switch {
	case errors.Is(err, scraper.ErrNoJob):
		c.JSON(http.StatusNotFound, gin.H{"error": "no active scrape job"})
	case errors.Is(err, scraper.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited, job paused", "summary": summary})
	case err != nil:
		h.logger.Error("batch processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}

// Cron handles POST /api/v1/scrape/cron: the scheduler trigger. Starts a job
// if none is active, then processes one batch.
func (h *ScrapeHandler) Cron(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), batchBudget)
	defer cancel()

	started := false
	if _, err := h.jobs.Start(ctx); err == nil {
		started = true
	} else if !errors.Is(err, scraper.ErrJobAlreadyActive) {
		if errors.Is(err, scraper.ErrNoTargets) {
			c.JSON(http.StatusOK, gin.H{"message": "no scrape targets available"})
			return
		}
		h.logger.Error("cron failed to start scrape job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start scrape job"})
		return
	}

	summary, err := h.jobs.ProcessNextBatch(ctx)

	switch {
	case errors.Is(err, scraper.ErrNoJob):
		c.JSON(http.StatusOK, gin.H{"message": "nothing to do", "started": started})
	case errors.Is(err, scraper.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited, job paused", "summary": summary})
	case err != nil:
		h.logger.Error("cron batch processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"summary": summary, "started": started})
	}
}

// Pause handles POST /api/v1/scrape/pause.
func (h *ScrapeHandler) Pause(c *gin.Context) {
	job, err := h.jobs.Pause(c.Request.Context())

	switch {
	case errors.Is(err, scraper.ErrNoJob):
		c.JSON(http.StatusNotFound, gin.H{"error": "no active scrape job"})
	case err != nil:
		h.logger.Error("failed to pause scrape job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to pause scrape job"})
	default:
		c.JSON(http.StatusOK, gin.H{"job": job})
	}
}

// Resume handles POST /api/v1/scrape/resume.
func (h *ScrapeHandler) Resume(c *gin.Context) {
	job, err := h.jobs.Resume(c.Request.Context())

	switch {
	case errors.Is(err, scraper.ErrNoPausedJob):
		c.JSON(http.StatusNotFound, gin.H{"error": "no paused scrape job"})
	case err != nil:
		h.logger.Error("failed to resume scrape job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resume scrape job"})
	default:
		c.JSON(http.StatusOK, gin.H{"job": job})
	}
}

// Cancel handles POST /api/v1/scrape/cancel.
func (h *ScrapeHandler) Cancel(c *gin.Context) {
	job, err := h.jobs.Cancel(c.Request.Context())

	switch {
	case errors.Is(err, scraper.ErrNoJob):
		c.JSON(http.StatusNotFound, gin.H{"error": "no scrape job to cancel"})
	case err != nil:
		h.logger.Error("failed to cancel scrape job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel scrape job"})
	default:
		c.JSON(http.StatusOK, gin.H{"job": job})
	}
}
