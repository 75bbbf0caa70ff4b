package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/core/ports/mocks"
	"github.com/vncsmyrnk/evote/internal/core/services"
)

func TestElectionService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(_ context.Context, ev domain.Event) {
		assert.Equal(t, domain.EventElectionCreated, ev.Type)
	})
	svc := services.NewElectionService(f.elections, f.voters, f.ledger, fixedClock(now), services.WithNotifier(notifier))

	e, err := svc.Create(ctx, ports.CreateElectionInput{
		Name:    "  Student Council ",
		StartAt: now,
		EndAt:   now.Add(24 * time.Hour),
		Active:  true,
		Candidates: []ports.CandidateInput{
			{Name: "Alice", Party: "Blue"},
			{Name: "Bob", Party: "Green"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Student Council", e.Name)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got.Candidates, 2)
	assert.Equal(t, "Alice", got.Candidates[0].Name)
	assert.True(t, got.Candidates[0].CreatedAt.Before(got.Candidates[1].CreatedAt))
}

func TestElectionService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := services.NewElectionService(f.elections, f.voters, f.ledger, fixedClock(now))

	tests := []struct {
		name    string
		input   ports.CreateElectionInput
		wantErr error
	}{
		{"missing name", ports.CreateElectionInput{StartAt: now, EndAt: now.Add(time.Hour)}, domain.ErrInvalidInput},
		{"missing dates", ports.CreateElectionInput{Name: "x"}, domain.ErrInvalidInput},
		{"end before start", ports.CreateElectionInput{Name: "x", StartAt: now, EndAt: now.Add(-time.Hour)}, domain.ErrInvalidWindow},
		{"empty window", ports.CreateElectionInput{Name: "x", StartAt: now, EndAt: now}, domain.ErrInvalidWindow},
		{"blank candidate", ports.CreateElectionInput{Name: "x", StartAt: now, EndAt: now.Add(time.Hour), Candidates: []ports.CandidateInput{{Name: " "}}}, domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestElectionService_AddCandidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewElectionService(f.elections, f.voters, f.ledger, fixedClock(now))

	open := f.ongoing(t, "Alice")
	c, err := svc.AddCandidate(ctx, open.ID, ports.CandidateInput{Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, open.ID, c.ElectionID)

	done := f.seedElection(t, now.Add(-2*time.Hour), now.Add(-time.Hour), "Alice")
	_, err = svc.AddCandidate(ctx, done.ID, ports.CandidateInput{Name: "Late"})
	assert.ErrorIs(t, err, domain.ErrVotingClosed)

	_, err = svc.AddCandidate(ctx, uuid.New(), ports.CandidateInput{Name: "Bob"})
	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}

func TestElectionService_OverviewMarksVotedElections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)

	voted := f.ongoing(t, "Alice")
	notVoted := f.seedElection(t, now.Add(-time.Hour), now.Add(2*time.Hour), "Alice")
	upcoming := f.seedElection(t, now.Add(time.Hour), now.Add(2*time.Hour), "Alice")
	completed := f.seedElection(t, now.Add(-3*time.Hour), now.Add(-time.Hour), "Alice")
	suspended := f.ongoing(t, "Alice")

	votes := services.NewVoteService(f.elections, f.voters, f.ledger, fixedClock(now))
	_, err := votes.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: voted.ID, CandidateID: voted.Candidates[0].ID})
	require.NoError(t, err)

	svc := services.NewElectionService(f.elections, f.voters, f.ledger, fixedClock(now))
	require.NoError(t, svc.SetActive(ctx, suspended.ID, false))

	overview, err := svc.Overview(ctx, voter.ID)
	require.NoError(t, err)

	require.Len(t, overview.Ongoing, 2)
	assert.Equal(t, voted.ID, overview.Ongoing[0].ID)
	assert.True(t, overview.Ongoing[0].HasVoted)
	assert.Equal(t, notVoted.ID, overview.Ongoing[1].ID)
	assert.False(t, overview.Ongoing[1].HasVoted)

	require.Len(t, overview.Upcoming, 1)
	assert.Equal(t, upcoming.ID, overview.Upcoming[0].ID)
	assert.Equal(t, domain.StateUpcoming, overview.Upcoming[0].State)
	require.Len(t, overview.Completed, 1)
	assert.Equal(t, completed.ID, overview.Completed[0].ID)
}

func TestElectionService_DeleteAndStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)
	f.adult(t)
	keep := f.ongoing(t, "Alice", "Bob")
	drop := f.ongoing(t, "Carol")

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockResultCache(ctrl)
	cache.EXPECT().Invalidate(gomock.Any(), drop.ID).Return(nil)

	votes := services.NewVoteService(f.elections, f.voters, f.ledger, fixedClock(now))
	_, err := votes.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: keep.ID, CandidateID: keep.Candidates[0].ID})
	require.NoError(t, err)
	_, err = votes.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: drop.ID, CandidateID: drop.Candidates[0].ID})
	require.NoError(t, err)

	svc := services.NewElectionService(f.elections, f.voters, f.ledger, fixedClock(now), services.WithResultCache(cache))
	require.NoError(t, svc.Delete(ctx, drop.ID))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Voters: 2, Elections: 1, Candidates: 2, Votes: 1}, *stats)

	assert.ErrorIs(t, svc.Delete(ctx, drop.ID), domain.ErrElectionNotFound)
}

func TestElectionService_Candidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.ongoing(t, "Alice", "Bob")
	castAll(t, f, now, e, 1)

	svc := services.NewElectionService(f.elections, f.voters, f.ledger, fixedClock(now))
	election, candidates, err := svc.Candidates(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, election.ID)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Bob", candidates[0].Name)

	_, _, err = svc.Candidates(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}
