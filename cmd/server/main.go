package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vncsmyrnk/evote/internal/adapters/handler/http"
	"github.com/vncsmyrnk/evote/internal/app"
	"github.com/vncsmyrnk/evote/internal/platform/config"
	"github.com/vncsmyrnk/evote/internal/platform/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	handler := http.NewHandler(http.Handlers{
		Auth:     http.NewAuthHandler(application.Auth, cfg.TokenTTL, os.Getenv("EVOTE_COOKIE_DOMAIN"), os.Getenv("EVOTE_COOKIE_SECURE") != ""),
		Voters:   http.NewVoterHandler(application.Voters),
		Election: http.NewElectionHandler(application.Elections),
		Votes:    http.NewVoteHandler(application.Votes),
		Results:  http.NewResultHandler(application.Results),
	}, application.Auth, log, application.Registry)

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := application.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to release resources")
	}
}
