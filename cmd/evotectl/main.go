package main

import (
	"context"
	"os"
	"time"

	"github.com/vncsmyrnk/evote/internal/app"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/platform/config"
	"github.com/vncsmyrnk/evote/internal/platform/logger"
)

// Usage: evotectl [flags] promote|demote <email>
func main() {
	log := logger.New()

	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if len(cfg.Args) != 2 {
		log.Fatal().Msg("usage: evotectl [flags] promote|demote <email>")
	}

	var role string
	switch cfg.Args[0] {
	case "promote":
		role = domain.RoleAdmin
	case "demote":
		role = domain.RoleVoter
	default:
		log.Fatal().Str("command", cfg.Args[0]).Msg("unknown command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close(ctx)

	voter, err := application.Voters.SetRole(ctx, cfg.Args[1], role)
	if err != nil {
		log.Error().Err(err).Str("email", cfg.Args[1]).Msg("failed to change role")
		application.Close(ctx)
		os.Exit(1)
	}
	log.Info().Str("voter_id", voter.ID.String()).Str("role", voter.Role).Msg("role updated")
}
