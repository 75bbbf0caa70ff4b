package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/core/ports/mocks"
	"github.com/vncsmyrnk/evote/internal/core/services"
	"github.com/vncsmyrnk/evote/internal/platform/metrics"
)

func TestCastVote_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	cache := mocks.NewMockResultCache(ctrl)

	voter := f.adult(t)
	e := f.ongoing(t, "Alice", "Bob")

	cache.EXPECT().Invalidate(gomock.Any(), e.ID).Return(nil)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(_ context.Context, ev domain.Event) {
		assert.Equal(t, domain.EventVoteCast, ev.Type)
		require.NotNil(t, ev.ElectionID)
		assert.Equal(t, e.ID, *ev.ElectionID)
	})

	m := metrics.New(prometheus.NewRegistry())
	svc := services.NewVoteService(f.elections, f.voters, f.ledger,
		fixedClock(now), services.WithNotifier(notifier), services.WithResultCache(cache), services.WithMetrics(m))

	receipt, err := svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[1].ID})
	require.NoError(t, err)
	assert.Equal(t, e.Candidates[1].ID, receipt.Candidate.ID)
	assert.Equal(t, int64(1), receipt.Candidate.Votes)
	assert.Equal(t, now, receipt.Vote.CastAt)

	vote, err := svc.MyVote(ctx, voter.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.Vote.ID, vote.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesCast))
}

func TestCastVote_Preconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	adult := f.adult(t)
	unverified := f.seedVoter(t, false, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC))
	// turns 18 three days after now
	minor := f.seedVoter(t, true, time.Date(2008, 6, 4, 0, 0, 0, 0, time.UTC))

	ongoing := f.ongoing(t, "Alice")
	other := f.ongoing(t, "Zed")
	upcoming := f.seedElection(t, now.Add(time.Hour), now.Add(2*time.Hour), "Alice")
	completed := f.seedElection(t, now.Add(-2*time.Hour), now.Add(-time.Hour), "Alice")
	suspended := f.ongoing(t, "Alice")
	require.NoError(t, f.elections.SetActive(ctx, suspended.ID, false))

	svc := services.NewVoteService(f.elections, f.voters, f.ledger, fixedClock(now))

	tests := []struct {
		name    string
		input   ports.VoteInput
		wantErr error
	}{
		{"unknown election", ports.VoteInput{VoterID: adult.ID, ElectionID: uuid.New(), CandidateID: uuid.New()}, domain.ErrElectionNotFound},
		{"upcoming election", ports.VoteInput{VoterID: adult.ID, ElectionID: upcoming.ID, CandidateID: upcoming.Candidates[0].ID}, domain.ErrVotingClosed},
		{"completed election", ports.VoteInput{VoterID: adult.ID, ElectionID: completed.ID, CandidateID: completed.Candidates[0].ID}, domain.ErrVotingClosed},
		{"suspended election", ports.VoteInput{VoterID: adult.ID, ElectionID: suspended.ID, CandidateID: suspended.Candidates[0].ID}, domain.ErrVotingClosed},
		{"closed wins over unknown candidate", ports.VoteInput{VoterID: adult.ID, ElectionID: completed.ID, CandidateID: uuid.New()}, domain.ErrVotingClosed},
		{"candidate of another election", ports.VoteInput{VoterID: adult.ID, ElectionID: ongoing.ID, CandidateID: other.Candidates[0].ID}, domain.ErrCandidateNotFound},
		{"unknown voter", ports.VoteInput{VoterID: uuid.New(), ElectionID: ongoing.ID, CandidateID: ongoing.Candidates[0].ID}, domain.ErrVoterNotFound},
		{"unverified voter", ports.VoteInput{VoterID: unverified.ID, ElectionID: ongoing.ID, CandidateID: ongoing.Candidates[0].ID}, domain.ErrIneligibleVoter},
		{"underage voter", ports.VoteInput{VoterID: minor.ID, ElectionID: ongoing.ID, CandidateID: ongoing.Candidates[0].ID}, domain.ErrIneligibleVoter},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CastVote(ctx, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	n, err := f.ledger.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected casts leave the ledger untouched")
}

func TestCastVote_Duplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)
	e := f.ongoing(t, "Alice", "Bob")
	m := metrics.New(prometheus.NewRegistry())
	svc := services.NewVoteService(f.elections, f.voters, f.ledger, fixedClock(now), services.WithMetrics(m))

	_, err := svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[0].ID})
	require.NoError(t, err)

	_, err = svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[1].ID})
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesRejected.WithLabelValues("duplicate_vote")))

	got, err := f.elections.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Candidates[0].Votes)
	assert.Equal(t, int64(0), got.Candidates[1].Votes)
}

func TestCastVote_ConcurrentSameVoter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)
	e := f.ongoing(t, "Alice", "Bob")
	svc := services.NewVoteService(f.elections, f.voters, f.ledger, fixedClock(now))

	const attempts = 100
	var (
		wg         sync.WaitGroup
		succeeded  atomic.Int32
		dupes      atomic.Int32
		unexpected atomic.Int32
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[i%2].ID})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrDuplicateVote):
				dupes.Add(1)
			default:
				unexpected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), dupes.Load())
	assert.Zero(t, unexpected.Load())

	got, err := f.elections.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Candidates[0].Votes+got.Candidates[1].Votes)
}

func TestCastVote_ConcurrentManyVotersKeepCountersConsistent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.ongoing(t, "Alice", "Bob", "Carol")
	voters := make([]*domain.Voter, 40)
	for i := range voters {
		voters[i] = f.adult(t)
	}
	votes := services.NewVoteService(f.elections, f.voters, f.ledger, fixedClock(now))
	results := services.NewResultService(f.elections, f.ledger, f.results, fixedClock(now))

	var wg sync.WaitGroup
	for i, v := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := votes.CastVote(ctx, ports.VoteInput{VoterID: v.ID, ElectionID: e.ID, CandidateID: e.Candidates[i%3].ID})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := results.GetResults(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(voters)), res.TotalVotes)

	drift, err := results.AuditTally(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, drift)
}

// flakyLedger fails the first failures calls to Cast with err.
type flakyLedger struct {
	ports.VoteLedger
	failures int32
	err      error
	calls    atomic.Int32
}

func (l *flakyLedger) Cast(ctx context.Context, vote *domain.Vote) (*domain.Candidate, error) {
	if l.calls.Add(1) <= l.failures {
		return nil, l.err
	}
	return l.VoteLedger.Cast(ctx, vote)
}

func TestCastVote_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)
	e := f.ongoing(t, "Alice")
	transient := transientErr()

	ledger := &flakyLedger{VoteLedger: f.ledger, failures: 2, err: transient}
	m := metrics.New(prometheus.NewRegistry())
	svc := services.NewVoteService(f.elections, f.voters, ledger,
		fixedClock(now), services.WithMetrics(m), services.WithRetryPolicy(3, time.Millisecond))

	receipt, err := svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.Candidate.Votes)
	assert.Equal(t, int32(3), ledger.calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerRetries))
}

func TestCastVote_GivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)
	e := f.ongoing(t, "Alice")

	ledger := &flakyLedger{VoteLedger: f.ledger, failures: 100, err: transientErr()}
	svc := services.NewVoteService(f.elections, f.voters, ledger, fixedClock(now), services.WithRetryPolicy(2, time.Millisecond))

	_, err := svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[0].ID})
	assert.ErrorIs(t, err, domain.ErrStorageTransient)
	assert.Equal(t, int32(3), ledger.calls.Load())

	voted, err := f.ledger.HasVoted(ctx, voter.ID, e.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestCastVote_DoesNotRetryPermanentFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)
	e := f.ongoing(t, "Alice")

	boom := errors.New("disk full")
	ledger := &flakyLedger{VoteLedger: f.ledger, failures: 100, err: boom}
	svc := services.NewVoteService(f.elections, f.voters, ledger, fixedClock(now), services.WithRetryPolicy(5, time.Millisecond))

	_, err := svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[0].ID})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), ledger.calls.Load())
}

func transientErr() error {
	return errors.Join(errors.New("serialization failure"), domain.ErrStorageTransient)
}

// staleElections returns the election as it was before SetActive ran, the way
// a read that lost the race with an admin would see it.
type staleElections struct {
	ports.ElectionRepository
	snapshot *domain.Election
}

func (r *staleElections) GetByID(ctx context.Context, id uuid.UUID) (*domain.Election, error) {
	return r.snapshot, nil
}

func TestCastVote_DeactivatedDuringCast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	voter := f.adult(t)
	e := f.ongoing(t, "Alice")

	snapshot, err := f.elections.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.NoError(t, f.elections.SetActive(ctx, e.ID, false))

	svc := services.NewVoteService(&staleElections{ElectionRepository: f.elections, snapshot: snapshot}, f.voters, f.ledger, fixedClock(now))
	_, err = svc.CastVote(ctx, ports.VoteInput{VoterID: voter.ID, ElectionID: e.ID, CandidateID: e.Candidates[0].ID})
	assert.ErrorIs(t, err, domain.ErrVotingClosed)

	voted, err := f.ledger.HasVoted(ctx, voter.ID, e.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}
