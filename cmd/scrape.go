package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scoutdeck/enricher/internal/domain"
	"github.com/scoutdeck/enricher/internal/scraper"
)

func scrapeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Control the enrichment scrape job",
	}

	cmd.AddCommand(
		scrapeStartCommand(),
		scrapeStatusCommand(),
		scrapeProcessCommand(),
		scrapePauseCommand(),
		scrapeResumeCommand(),
		scrapeCancelCommand(),
	)

	return cmd
}

func scrapeStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Create a scrape job over all eligible players",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			job, err := a.orchestrator.Start(cmd.Context())
			if errors.Is(err, scraper.ErrJobAlreadyActive) {
				fmt.Printf("job %s is already active (%s)\n", job.ID, job.Status)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("created job %s: %d targets, batch size %d\n",
				job.ID, job.TotalTargets, job.BatchSize)
			return nil
		},
	}
}

func scrapeStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current scrape job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			job, err := a.orchestrator.Status(cmd.Context())
			if errors.Is(err, scraper.ErrNoJob) {
				fmt.Println("no scrape job found")
				return nil
			}
			if err != nil {
				return err
			}

			printJob(job)
			return nil
		},
	}
}

func scrapeProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process the next batch of the active job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.orchestrator.ProcessNextBatch(cmd.Context())
			if errors.Is(err, scraper.ErrNoJob) {
				fmt.Println("no active scrape job")
				return nil
			}
			if errors.Is(err, scraper.ErrRateLimited) {
				fmt.Printf("rate limited, job paused after %d processed\n", summary.ProcessedCount)
				return err
			}
			if err != nil {
				return err
			}

			fmt.Printf("batch done: %d processed, %d ok, %d failed, %d%% complete\n",
				summary.ProcessedCount, summary.SuccessCount, summary.ErrorCount, summary.Progress)
			if summary.Completed {
				fmt.Println("job completed")
			}
			return nil
		},
	}
}

func scrapePauseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the active scrape job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return transition(cmd, "paused", (*scraper.Orchestrator).Pause)
		},
	}
}

func scrapeResumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the paused scrape job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return transition(cmd, "resumed", (*scraper.Orchestrator).Resume)
		},
	}
}

func scrapeCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the current scrape job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return transition(cmd, "cancelled", (*scraper.Orchestrator).Cancel)
		},
	}
}

type transitionFunc func(*scraper.Orchestrator, context.Context) (*domain.ScrapeJob, error)

func transition(cmd *cobra.Command, verb string, fn transitionFunc) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	job, err := fn(a.orchestrator, cmd.Context())
	if errors.Is(err, scraper.ErrNoJob) || errors.Is(err, scraper.ErrNoPausedJob) {
		fmt.Println("no matching scrape job")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("job %s %s\n", job.ID, verb)
	return nil
}

func printJob(job *domain.ScrapeJob) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"Job", job.ID},
		{"Status", job.Status},
		{"Progress", fmt.Sprintf("%d/%d (%d%%)", job.ProcessedCount, job.TotalTargets, job.Progress())},
		{"Successes", job.SuccessCount},
		{"Errors", job.ErrorCount},
		{"Retries", job.RetryCount},
		{"Rate limits", job.RateLimitCount},
		{"Error rate", fmt.Sprintf("%.1f%%", job.ErrorRate)},
		{"Speed multiplier", fmt.Sprintf("%.1fx", job.SpeedMultiplier)},
		{"Slow mode", job.SlowModeActive},
		{"Batch", fmt.Sprintf("%d (size %d)", job.CurrentBatch, job.BatchSize)},
		{"Created", job.CreatedAt.Format(time.RFC3339)},
	})
	if job.LastProcessedAt != nil {
		t.AppendRow(table.Row{"Last processed", job.LastProcessedAt.Format(time.RFC3339)})
	}
	if job.Last429At != nil {
		t.AppendRow(table.Row{"Last 429", job.Last429At.Format(time.RFC3339)})
	}
	if job.LastError != nil {
		t.AppendRow(table.Row{"Last error", *job.LastError})
	}
	t.Render()
}
