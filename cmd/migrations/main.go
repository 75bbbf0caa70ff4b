package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/evote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evote/internal/platform/config"
	"github.com/vncsmyrnk/evote/internal/platform/logger"
)

// Usage: migrations [flags] <name|up|down>
//
// "up" and "down" apply every migration in that direction, any other name
// runs the single migration file ending with it.
func main() {
	log := logger.New()

	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if len(cfg.Args) == 0 {
		log.Fatal().Msg("a migration name is required")
	}
	migrationName := cfg.Args[0]

	db, err := sql.Open("postgres", cfg.PostgresURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch migrationName {
	case "up", "down":
		err = postgres.Migrate(ctx, db, migrationName+".sql")
	default:
		err = postgres.RunMigration(ctx, db, migrationName)
	}
	if err != nil {
		log.Fatal().Err(err).Str("migration", migrationName).Msg("migration failed")
	}

	log.Info().Str("migration", migrationName).Msg("migration executed successfully")
}
