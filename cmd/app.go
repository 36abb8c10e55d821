package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/scoutdeck/enricher/internal/config"
	"github.com/scoutdeck/enricher/internal/database"
	"github.com/scoutdeck/enricher/internal/events"
	"github.com/scoutdeck/enricher/internal/extract"
	"github.com/scoutdeck/enricher/internal/fetch"
	"github.com/scoutdeck/enricher/internal/logger"
	"github.com/scoutdeck/enricher/internal/scraper"
	"github.com/scoutdeck/enricher/internal/sse"
)

// app holds the wired service graph shared by the subcommands.
type app struct {
	cfg          *config.Config
	logger       logger.Interface
	db           *sqlx.DB
	orchestrator *scraper.Orchestrator
	broker       *sse.Broker
}

// newApp loads configuration and wires the orchestrator. When withBroker is
// set, progress events also fan out to the SSE broker (serve mode); the CLI
// subcommands only need the log emitter.
func newApp(withBroker bool) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.App.Environment == "development",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, err
	}

	emitters := events.Multi{events.NewLogEmitter(log)}

	var broker *sse.Broker
	if withBroker {
		broker = sse.NewBroker(log)
		emitters = append(emitters, broker)
	}

	client := fetch.NewClient(cfg.Scraper.RequestTimeout, cfg.Scraper.Referer)
	extractor := extract.New(cfg.Scraper.Referer, log)

	orchestrator := scraper.NewOrchestrator(
		database.NewJobRepository(db),
		database.NewPlayerRepository(db),
		database.NewAlertRepository(db),
		client,
		extractor,
		emitters,
		log,
		cfg.Scraper,
	)

	return &app{
		cfg:          cfg,
		logger:       log,
		db:           db,
		orchestrator: orchestrator,
		broker:       broker,
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}
