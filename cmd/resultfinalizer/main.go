package main

import (
	"context"
	"os"
	"time"

	"github.com/vncsmyrnk/evote/internal/app"
	"github.com/vncsmyrnk/evote/internal/platform/config"
	"github.com/vncsmyrnk/evote/internal/platform/logger"
)

// resultfinalizer persists the outcome of every completed election. It is
// meant to run periodically, e.g. from cron.
func main() {
	log := logger.New()

	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close(ctx)

	log.Info().Msg("starting result finalization job")

	n, err := application.Results.FinalizeCompleted(ctx)
	if err != nil {
		log.Error().Err(err).Int("finalized", n).Msg("result finalization failed")
		application.Close(ctx)
		os.Exit(1)
	}

	log.Info().Int("finalized", n).Msg("result finalization completed")
}
