package services_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/fake"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/evote/internal/adapters/repository/boltdb"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/core/services"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	voters    ports.VoterRepository
	elections ports.ElectionRepository
	ledger    ports.VoteLedger
	results   ports.ResultRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "evote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{
		voters:    boltdb.NewVoterRepository(db),
		elections: boltdb.NewElectionRepository(db),
		ledger:    boltdb.NewVoteLedger(db),
		results:   boltdb.NewResultRepository(db),
	}
}

func fixedClock(at time.Time) services.Option {
	return services.WithClock(func() time.Time { return at })
}

// seedVoter stores a voter born on dob.
func (f *fixture) seedVoter(t *testing.T, verified bool, dob time.Time) *domain.Voter {
	t.Helper()
	handle := strings.ToLower(fake.CharactersN(12))
	v := &domain.Voter{
		ID:           uuid.New(),
		Username:     handle,
		FirstName:    fake.CharactersN(6),
		LastName:     fake.CharactersN(8),
		Email:        handle + "@example.com",
		DateOfBirth:  &dob,
		Verified:     verified,
		Role:         domain.RoleVoter,
		PasswordHash: "unused",
		CreatedAt:    now,
	}
	require.NoError(t, f.voters.Create(context.Background(), v))
	return v
}

func (f *fixture) adult(t *testing.T) *domain.Voter {
	return f.seedVoter(t, true, time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC))
}

func (f *fixture) seedElection(t *testing.T, start, end time.Time, names ...string) *domain.Election {
	t.Helper()
	e := &domain.Election{ID: uuid.New(), Name: fake.WordsN(3), StartAt: start, EndAt: end, Active: true, CreatedAt: now}
	for i, name := range names {
		e.Candidates = append(e.Candidates, domain.Candidate{
			ID:         uuid.New(),
			ElectionID: e.ID,
			Name:       name,
			CreatedAt:  now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	require.NoError(t, f.elections.Save(context.Background(), e))
	return e
}

func (f *fixture) ongoing(t *testing.T, names ...string) *domain.Election {
	return f.seedElection(t, now.Add(-time.Hour), now.Add(time.Hour), names...)
}
