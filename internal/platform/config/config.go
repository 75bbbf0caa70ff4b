package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

type Config struct {
	Addr string

	StorageDriver string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPass        string
	DBName        string
	BoltPath      string

	RedisURL   string
	ResultsTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret   string
	TokenTTL    time.Duration
	VoteRetries uint64

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// Load reads an optional .env file, the environment and then command line
// flags, later sources overriding earlier ones.
func Load(name string, args []string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:          envOr("EVOTE_ADDR", "0.0.0.0:8080"),
		StorageDriver: envOr("EVOTE_STORAGE", DriverPostgres),
		DBHost:        os.Getenv("POSTGRES_HOST"),
		DBPort:        envOr("POSTGRES_PORT", "5432"),
		DBUser:        os.Getenv("POSTGRES_USER"),
		DBPass:        os.Getenv("POSTGRES_PASSWORD"),
		DBName:        os.Getenv("POSTGRES_DB"),
		BoltPath:      envOr("EVOTE_BOLT_PATH", "evote.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaTopic:    envOr("KAFKA_TOPIC", "evote.events"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	if cfg.ResultsTTL, err = envDuration("EVOTE_RESULTS_TTL", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = envDuration("EVOTE_TOKEN_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	retries := envOr("EVOTE_VOTE_RETRIES", "3")
	if cfg.VoteRetries, err = strconv.ParseUint(retries, 10, 32); err != nil {
		return Config{}, fmt.Errorf("invalid EVOTE_VOTE_RETRIES %q: %w", retries, err)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.StorageDriver, "storage", cfg.StorageDriver, "Storage driver (postgres or bolt)")
	fs.StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "Database host")
	fs.StringVar(&cfg.DBPort, "db-port", cfg.DBPort, "Database port")
	fs.StringVar(&cfg.DBUser, "db-user", cfg.DBUser, "Database user")
	fs.StringVar(&cfg.DBPass, "db-pass", cfg.DBPass, "Database password")
	fs.StringVar(&cfg.DBName, "db-name", cfg.DBName, "Database name")
	fs.StringVar(&cfg.BoltPath, "bolt-path", cfg.BoltPath, "Bolt database file")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the results cache")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()

	if cfg.StorageDriver != DriverPostgres && cfg.StorageDriver != DriverBolt {
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
