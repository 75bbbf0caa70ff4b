// Package rediscache keeps computed election results in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

const resultsKeyPrefix = "evote:results:"

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache stores results views for ttl. Views are also dropped
// explicitly whenever a vote is cast in their election.
func NewResultCache(client *redis.Client, ttl time.Duration) ports.ResultCache {
	return &resultCache{client: client, ttl: ttl}
}

func key(electionID uuid.UUID) string {
	return resultsKeyPrefix + electionID.String()
}

func (c *resultCache) Get(ctx context.Context, electionID uuid.UUID) (*domain.Results, bool, error) {
	raw, err := c.client.Get(ctx, key(electionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var results domain.Results
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false, fmt.Errorf("decode cached results: %w", err)
	}
	return &results, true, nil
}

func (c *resultCache) Set(ctx context.Context, results *domain.Results) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return c.client.Set(ctx, key(results.ElectionID), raw, c.ttl).Err()
}

func (c *resultCache) Invalidate(ctx context.Context, electionID uuid.UUID) error {
	return c.client.Del(ctx, key(electionID)).Err()
}
