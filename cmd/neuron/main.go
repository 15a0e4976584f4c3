package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alexanderramin/neuron/internal/cli"
	"github.com/alexanderramin/neuron/internal/cli/formatter"
	"github.com/alexanderramin/neuron/internal/config"
	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/db"
	"github.com/alexanderramin/neuron/internal/logging"
	"github.com/alexanderramin/neuron/internal/repository"
	"github.com/alexanderramin/neuron/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// NEURON_CONFIG names an explicit config file; otherwise ~/.neuron/config.yaml
	// is read when present.
	cfg, err := config.Load(os.Getenv("NEURON_CONFIG"))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, os.Stderr, isTerminal(os.Stderr))
	if err != nil {
		return err
	}

	// Rules load in the background while the store opens.
	engine := dates.NewEngine(config.RulesLoader{Path: cfg.RulesFile}, dates.WithLogger(logger))
	engine.Start(ctx)

	database, err := db.Open(ctx, cfg.DBPath, db.OpenOptions{
		Attempts: cfg.Open.Attempts,
		Backoff:  cfg.Open.Backoff,
		Logger:   logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("store unavailable, running on an in-memory store; changes will not be kept")
		database, err = db.OpenDB(db.MemoryPath)
		if err != nil {
			return fmt.Errorf("opening in-memory store: %w", err)
		}
	}
	defer database.Close()

	var cache service.StatsCache = service.NoopStatsCache{}
	if cfg.Cache.Enabled {
		cache = service.NewFreeStatsCache(cfg.Cache.SizeMB)
	}

	store := service.NewDemandStore(
		repository.NewSQLiteDemandRepo(database),
		repository.NewSQLiteCompletionRepo(database),
		repository.NewSQLiteMetadataRepo(database),
		db.NewSQLiteUnitOfWork(database),
		service.WithThresholds(service.Thresholds{
			ShortDeadlineDays: cfg.Thresholds.ShortDeadlineDays,
			UpcomingDays:      cfg.Thresholds.UpcomingDays,
		}),
		service.WithStatsCache(cache),
		service.WithObserver(service.NewLogUseCaseObserver(logger)),
		service.WithStoreLogger(logger),
	)

	deadlines, err := config.LoadDeadlineSettings(cfg.RulesFile)
	if err != nil {
		logger.Error().Err(err).Msg("reading deadline settings failed, using defaults")
		deadlines = dates.DefaultDeadlineSettings()
	}

	app := &cli.App{
		Store:     store,
		Dates:     engine,
		Deadlines: deadlines,
		Urgency: formatter.Urgency{
			Short:    cfg.Thresholds.ShortDeadlineDays,
			Upcoming: cfg.Thresholds.UpcomingDays,
		},
		LegacyFile: cfg.LegacyFile,
		Plain:      !isTerminal(os.Stdout),
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
