package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdeck/enricher/internal/api"
	"github.com/scoutdeck/enricher/internal/config"
	"github.com/scoutdeck/enricher/internal/domain"
	"github.com/scoutdeck/enricher/internal/events"
	"github.com/scoutdeck/enricher/internal/logger"
	"github.com/scoutdeck/enricher/internal/scraper"
)

type fakeController struct {
	job     *domain.ScrapeJob
	summary *domain.BatchSummary
	err     error
}

func (f *fakeController) Start(context.Context) (*domain.ScrapeJob, error)  { return f.job, f.err }
func (f *fakeController) Status(context.Context) (*domain.ScrapeJob, error) { return f.job, f.err }
func (f *fakeController) Pause(context.Context) (*domain.ScrapeJob, error)  { return f.job, f.err }
func (f *fakeController) Resume(context.Context) (*domain.ScrapeJob, error) { return f.job, f.err }
func (f *fakeController) Cancel(context.Context) (*domain.ScrapeJob, error) { return f.job, f.err }

func (f *fakeController) ProcessNextBatch(context.Context) (*domain.BatchSummary, error) {
	return f.summary, f.err
}

type fakeSubscriber struct {
	events []events.Event
}

func (f *fakeSubscriber) Subscribe(string) (<-chan events.Event, func()) {
	ch := make(chan events.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, func() {}
}

func newTestRouter(ctrl *fakeController, cfg config.ServerConfig) http.Handler {
	log := logger.NewNoop()
	return api.NewRouter(
		cfg,
		api.NewScrapeHandler(ctrl, log),
		api.NewStreamHandler(&fakeSubscriber{events: []events.Event{events.Info("job-1", "hello")}}, log),
		log,
	)
}

func doRequest(t *testing.T, h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(""))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStartCreated(t *testing.T) {
	ctrl := &fakeController{job: &domain.ScrapeJob{ID: "job-1", Status: domain.JobStatusPending, TotalTargets: 250}}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodPost, "/api/v1/scrape/start", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Job domain.ScrapeJob `json:"job"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "job-1", body.Job.ID)
	assert.Equal(t, 250, body.Job.TotalTargets)
}

func TestStartConflictWhenActive(t *testing.T) {
	ctrl := &fakeController{
		job: &domain.ScrapeJob{ID: "job-1", Status: domain.JobStatusRunning},
		err: scraper.ErrJobAlreadyActive,
	}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodPost, "/api/v1/scrape/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStatusNotFound(t *testing.T) {
	ctrl := &fakeController{err: scraper.ErrNoJob}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodGet, "/api/v1/scrape/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessRateLimitedMapsTo429(t *testing.T) {
	ctrl := &fakeController{
		summary: &domain.BatchSummary{JobID: "job-1", ProcessedCount: 5, RateLimitCount: 5},
		err:     scraper.ErrRateLimited,
	}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodPost, "/api/v1/scrape/process", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limited")
}

func TestAdminAuthRequired(t *testing.T) {
	ctrl := &fakeController{job: &domain.ScrapeJob{ID: "job-1"}}
	h := newTestRouter(ctrl, config.ServerConfig{AdminToken: "secret-token"})

	w := doRequest(t, h, http.MethodGet, "/api/v1/scrape/status", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/v1/scrape/status", map[string]string{
		"X-Admin-Token": "secret-token",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/v1/scrape/status", map[string]string{
		"Authorization": "Bearer secret-token",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCronAuth(t *testing.T) {
	ctrl := &fakeController{
		job:     &domain.ScrapeJob{ID: "job-1"},
		summary: &domain.BatchSummary{JobID: "job-1", ProcessedCount: 5},
	}
	h := newTestRouter(ctrl, config.ServerConfig{CronSecret: "cron-secret"})

	w := doRequest(t, h, http.MethodPost, "/api/v1/scrape/cron", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, h, http.MethodPost, "/api/v1/scrape/cron", map[string]string{
		"Authorization": "Bearer cron-secret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "summary")
}

func TestCronRejectedWithoutConfiguredSecret(t *testing.T) {
	ctrl := &fakeController{summary: &domain.BatchSummary{}}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodPost, "/api/v1/scrape/cron", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPauseNoJob(t *testing.T) {
	ctrl := &fakeController{err: scraper.ErrNoJob}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodPost, "/api/v1/scrape/pause", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResumeNoPausedJob(t *testing.T) {
	ctrl := &fakeController{err: scraper.ErrNoPausedJob}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodPost, "/api/v1/scrape/resume", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamDeliversEvents(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestRouter(ctrl, config.ServerConfig{})

	w := doRequest(t, h, http.MethodGet, "/api/v1/scrape/logs/stream", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:log")
	assert.Contains(t, w.Body.String(), "hello")
}

func TestHealth(t *testing.T) {
	h := newTestRouter(&fakeController{}, config.ServerConfig{})

	w := doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
