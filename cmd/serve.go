package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/scoutdeck/enricher/internal/api"
	"github.com/scoutdeck/enricher/internal/scraper"
)

const serverShutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control API and the batch scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.broker.Start(ctx)
	defer a.broker.Stop()

	router := api.NewRouter(
		a.cfg.Server,
		api.NewScrapeHandler(a.orchestrator, a.logger),
		api.NewStreamHandler(a.broker, a.logger),
		a.logger,
	)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(a.cfg.Scraper.CronSchedule, func() {
		a.runScheduledBatch(ctx)
	}); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", a.cfg.Scraper.CronSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "address", srv.Addr)
		if serveErr := srv.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

// runScheduledBatch is the nightly trigger: it starts a job if none is
// active, then processes one batch. Subsequent schedule ticks walk the job
// forward batch by batch.
func (a *app) runScheduledBatch(ctx context.Context) {
	if _, err := a.orchestrator.Start(ctx); err != nil &&
		!errors.Is(err, scraper.ErrJobAlreadyActive) {
		if errors.Is(err, scraper.ErrNoTargets) {
			a.logger.Info("scheduled run: no scrape targets")
			return
		}
		a.logger.Error("scheduled run: failed to start job", "error", err)
		return
	}

	summary, err := a.orchestrator.ProcessNextBatch(ctx)
	switch {
	case errors.Is(err, scraper.ErrNoJob):
		a.logger.Info("scheduled run: nothing to do")
	case errors.Is(err, scraper.ErrRateLimited):
		a.logger.Warn("scheduled run: rate limited, job paused",
			"processed", summary.ProcessedCount)
	case err != nil:
		a.logger.Error("scheduled run: batch failed", "error", err)
	default:
		a.logger.Info("scheduled run: batch done",
			"processed", summary.ProcessedCount,
			"progress", summary.Progress,
			"completed", summary.Completed)
	}
}
