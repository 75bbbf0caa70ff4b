package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/platform/metrics"
)

var tracer = otel.Tracer("github.com/vncsmyrnk/evote/internal/core/services")

// Option configures the collaborators shared by all services.
type Option func(*common)

type common struct {
	clock      func() time.Time
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	notifier   ports.Notifier
	cache      ports.ResultCache
	retries    uint64
	retryBase  time.Duration
	bcryptCost int
}

func newCommon(opts []Option) common {
	c := common{
		clock:      time.Now,
		logger:     zerolog.Nop(),
		notifier:   discardNotifier{},
		retries:    3,
		retryBase:  20 * time.Millisecond,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.metrics == nil {
		c.metrics = metrics.New(nil)
	}
	return c
}

func (c *common) now() time.Time {
	return c.clock()
}

// WithClock sets the time source used for lifecycle decisions.
func WithClock(clock func() time.Time) Option {
	return func(c *common) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *common) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *common) {
		c.metrics = m
	}
}

func WithNotifier(n ports.Notifier) Option {
	return func(c *common) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithResultCache enables the results cache. Cast-vote invalidates the
// cached view of the election it writes to.
func WithResultCache(cache ports.ResultCache) Option {
	return func(c *common) {
		c.cache = cache
	}
}

// WithRetryPolicy bounds how often a transient ledger failure is retried and
// sets the first backoff interval.
func WithRetryPolicy(retries uint64, base time.Duration) Option {
	return func(c *common) {
		c.retries = retries
		if base > 0 {
			c.retryBase = base
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(c *common) {
		c.bcryptCost = cost
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, domain.Event) {}
