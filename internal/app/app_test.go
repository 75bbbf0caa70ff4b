package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/platform/config"
)

func TestNew_Bolt(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StorageDriver: config.DriverBolt,
		BoltPath:      filepath.Join(t.TempDir(), "evote.db"),
		JWTSecret:     "secret",
		TokenTTL:      time.Minute,
		VoteRetries:   2,
	}

	a, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	voter, err := a.Voters.Register(ctx, ports.RegisterVoterInput{
		Username:        "ada",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
		DateOfBirth:     "1990-03-15",
	})
	require.NoError(t, err)

	promoted, err := a.Voters.SetRole(ctx, "ada@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, voter.ID, promoted.ID)

	stats, err := a.Elections.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Voters)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	require.NoError(t, a.Close(ctx))
	assert.NoError(t, a.Close(ctx), "closing twice is a no-op")
}

func TestNew_InvalidRedisURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Config{
		StorageDriver: config.DriverBolt,
		BoltPath:      filepath.Join(t.TempDir(), "evote.db"),
		RedisURL:      "not a url",
		JWTSecret:     "secret",
	}
	_, err := New(ctx, cfg, zerolog.Nop())
	assert.Error(t, err)
}
