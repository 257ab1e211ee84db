package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"regharvest/internal/config"
	"regharvest/internal/log"
	"regharvest/internal/pipeline"
	"regharvest/internal/storage"
	"regharvest/pkg/model"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		outCSV     = flag.String("out", "", "override the CSV output path")
		debug      = flag.Bool("debug", false, "write debug artifacts and log at debug level")
	)
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.L().Fatal().Err(err).Msg("configuration")
	}
	if *outCSV != "" {
		cfg.Output.CSV = *outCSV
	}
	if *debug {
		cfg.Artifacts.Enabled = true
		cfg.Log.Level = "debug"
	}

	runID := uuid.NewString()
	log.Setup(log.Options{
		Level:   cfg.Log.Level,
		Writers: cfg.Log.Writer,
		File:    cfg.Log.File,
		RunID:   runID,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	centers, diag, err := pipeline.New(cfg, runID).Run(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNoCandidates) || errors.Is(err, model.ErrEndpointNotFound) {
			log.L().Error().Err(err).Msg("discovery failed, no listing can be produced")
		} else {
			log.L().Error().Err(err).Msg("harvest aborted")
		}
		os.Exit(1)
	}

	withEmail := 0
	for _, c := range centers {
		if c.Email != "" {
			withEmail++
		}
	}

	store, err := storage.Open(cfg.Sqlite.Dsn)
	if err != nil {
		log.L().Error().Err(err).Msg("open result store")
		os.Exit(1)
	}
	defer store.Close()

	saved, err := store.Save(runID, centers)
	if err != nil {
		log.L().Error().Err(err).Msg("persist centers")
		os.Exit(1)
	}

	written, err := storage.WriteCSV(cfg.Output.CSV, centers)
	if err != nil {
		log.L().Error().Err(err).Msg("write csv")
		os.Exit(1)
	}

	log.L().Info().
		Int("centers", len(centers)).
		Int("with_email", withEmail).
		Int("db_rows", saved).
		Int("csv_rows", written).
		Int("declared_total", diag.DeclaredTotal).
		Bool("stalled", diag.Stalled).
		Str("csv", cfg.Output.CSV).
		Msg("harvest finished")
}
