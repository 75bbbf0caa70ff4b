//go:build integration

package rediscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/vncsmyrnk/evote/internal/adapters/cache/rediscache"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

func TestResultCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := rediscache.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	cache := rediscache.NewResultCache(client, time.Minute)
	id := uuid.New()

	_, ok, err := cache.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	winner := domain.CandidateResult{ID: uuid.New(), Name: "Alice", Votes: 3, Percentage: 75}
	results := &domain.Results{
		ElectionID: id,
		Election:   "Board",
		State:      domain.StateCompleted,
		TotalVotes: 4,
		Candidates: []domain.CandidateResult{winner, {ID: uuid.New(), Name: "Bob", Votes: 1, Percentage: 25}},
		Outcome:    domain.OutcomeWinner,
		Winner:     &winner,
		ComputedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Set(ctx, results))

	got, ok, err := cache.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, results.Candidates, got.Candidates)
	require.NotNil(t, got.Winner)
	assert.Equal(t, "Alice", got.Winner.Name)

	ttl, err := client.TTL(ctx, "evote:results:"+id.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Invalidate(ctx, id))
	_, ok, err = cache.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
