// Package app wires configuration, storage, collaborators and services into
// one explicit application context shared by the commands.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/vncsmyrnk/evote/internal/adapters/cache/rediscache"
	"github.com/vncsmyrnk/evote/internal/adapters/notify"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/boltdb"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/core/services"
	"github.com/vncsmyrnk/evote/internal/platform/config"
	"github.com/vncsmyrnk/evote/internal/platform/metrics"
)

type repositories struct {
	voters    ports.VoterRepository
	elections ports.ElectionRepository
	ledger    ports.VoteLedger
	results   ports.ResultRepository
}

type App struct {
	Config   config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Voters    ports.VoterService
	Auth      *services.AuthService
	Elections ports.ElectionService
	Votes     ports.VoteService
	Results   ports.ResultService

	closers []func(context.Context) error
}

// New opens the configured storage and collaborators and builds the
// services. Close must be called to release them.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	repos, err := a.openStorage(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMetrics(a.Metrics),
		services.WithRetryPolicy(cfg.VoteRetries, 20*time.Millisecond),
	}

	if cfg.RedisURL != "" {
		client, err := rediscache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		opts = append(opts, services.WithResultCache(rediscache.NewResultCache(client, cfg.ResultsTTL)))
		logger.Info().Dur("ttl", cfg.ResultsTTL).Msg("results cache enabled")
	}

	notifier, err := a.notifier(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	opts = append(opts, services.WithNotifier(notifier))

	a.Voters = services.NewVoterService(repos.voters, opts...)
	a.Auth = services.NewAuthService(a.Voters, cfg.JWTSecret, cfg.TokenTTL, opts...)
	a.Elections = services.NewElectionService(repos.elections, repos.voters, repos.ledger, opts...)
	a.Votes = services.NewVoteService(repos.elections, repos.voters, repos.ledger, opts...)
	a.Results = services.NewResultService(repos.elections, repos.ledger, repos.results, opts...)

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (*repositories, error) {
	switch a.Config.StorageDriver {
	case config.DriverBolt:
		db, err := boltdb.Open(a.Config.BoltPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.Logger.Info().Str("path", a.Config.BoltPath).Msg("using bolt storage")
		return boltRepositories(db), nil
	default:
		db, err := sql.Open("postgres", a.Config.PostgresURL())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to reach database: %w", err)
		}
		if err := postgres.Migrate(ctx, db, "up.sql"); err != nil {
			return nil, err
		}
		a.Logger.Info().Str("host", a.Config.DBHost).Str("database", a.Config.DBName).Msg("using postgres storage")
		return &repositories{
			voters:    postgres.NewVoterRepository(db),
			elections: postgres.NewElectionRepository(db),
			ledger:    postgres.NewVoteLedger(db),
			results:   postgres.NewResultRepository(db),
		}, nil
	}
}

func boltRepositories(db *bolt.DB) *repositories {
	return &repositories{
		voters:    boltdb.NewVoterRepository(db),
		elections: boltdb.NewElectionRepository(db),
		ledger:    boltdb.NewVoteLedger(db),
		results:   boltdb.NewResultRepository(db),
	}
}

func (a *App) notifier(ctx context.Context) (ports.Notifier, error) {
	if len(a.Config.KafkaBrokers) == 0 {
		return notify.NewLogNotifier(a.Logger), nil
	}

	n, err := notify.NewKafkaNotifier(a.Config.KafkaBrokers, a.Config.KafkaTopic, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, n.Close)
	if err := n.EnsureTopic(ctx, 1, 1); err != nil {
		return nil, err
	}
	a.Logger.Info().Strs("brokers", a.Config.KafkaBrokers).Str("topic", a.Config.KafkaTopic).Msg("publishing events to kafka")
	return n, nil
}

// Close releases resources in reverse acquisition order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
