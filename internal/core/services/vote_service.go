package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type voteService struct {
	common
	elections ports.ElectionRepository
	voters    ports.VoterRepository
	ledger    ports.VoteLedger
}

func NewVoteService(elections ports.ElectionRepository, voters ports.VoterRepository, ledger ports.VoteLedger, opts ...Option) ports.VoteService {
	return &voteService{
		common:    newCommon(opts),
		elections: elections,
		voters:    voters,
		ledger:    ledger,
	}
}

func (s *voteService) CastVote(ctx context.Context, input ports.VoteInput) (*domain.CastReceipt, error) {
	ctx, span := tracer.Start(ctx, "VoteService.CastVote", trace.WithAttributes(
		attribute.String("election.id", input.ElectionID.String()),
		attribute.String("candidate.id", input.CandidateID.String()),
	))
	defer span.End()

	start := time.Now()
	receipt, err := s.castVote(ctx, input)
	s.metrics.ObserveCast(time.Since(start).Seconds())

	if err != nil {
		reason := rejectionReason(err)
		s.metrics.IncRejected(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)

		event := s.logger.Info()
		if reason == "internal" || reason == "storage_transient" {
			event = s.logger.Error()
		}
		event.Err(err).
			Str("voter_id", input.VoterID.String()).
			Str("election_id", input.ElectionID.String()).
			Str("reason", reason).
			Msg("vote rejected")
		return nil, err
	}

	s.metrics.IncVotesCast()
	return receipt, nil
}

// castVote checks the preconditions in order (election, window, candidate,
// voter, prior vote) and then writes to the ledger. The prior-vote read is
// only a fast path; the ledger's uniqueness constraint is what guarantees a
// single vote under concurrent submissions.
func (s *voteService) castVote(ctx context.Context, input ports.VoteInput) (*domain.CastReceipt, error) {
	now := s.now()

	election, err := s.elections.GetByID(ctx, input.ElectionID)
	if err != nil {
		return nil, err
	}
	if !election.State(now).AcceptsVotes() {
		return nil, domain.ErrVotingClosed
	}
	if _, ok := election.Candidate(input.CandidateID); !ok {
		return nil, domain.ErrCandidateNotFound
	}

	voter, err := s.voters.GetByID(ctx, input.VoterID)
	if err != nil {
		return nil, err
	}
	if !voter.CanVote(now) {
		return nil, domain.ErrIneligibleVoter
	}

	voted, err := s.ledger.HasVoted(ctx, input.VoterID, input.ElectionID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, domain.ErrDuplicateVote
	}

	vote := &domain.Vote{
		ID:          uuid.New(),
		VoterID:     input.VoterID,
		ElectionID:  input.ElectionID,
		CandidateID: input.CandidateID,
		CastAt:      now,
	}
	candidate, err := s.castWithRetry(ctx, vote)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, election.ID); err != nil {
			s.logger.Warn().Err(err).Str("election_id", election.ID.String()).Msg("failed to invalidate cached results")
		}
	}
	s.notifier.Notify(ctx, domain.NewEvent(domain.EventVoteCast, now).
		WithVoter(vote.VoterID).
		WithElection(vote.ElectionID))

	s.logger.Debug().
		Str("vote_id", vote.ID.String()).
		Str("election_id", vote.ElectionID.String()).
		Msg("vote cast")

	return &domain.CastReceipt{Vote: *vote, Candidate: *candidate}, nil
}

func (s *voteService) castWithRetry(ctx context.Context, vote *domain.Vote) (*domain.Candidate, error) {
	var candidate *domain.Candidate
	op := func() error {
		c, err := s.ledger.Cast(ctx, vote)
		if err != nil {
			if errors.Is(err, domain.ErrStorageTransient) {
				return err
			}
			return backoff.Permanent(err)
		}
		candidate = c
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryBase
	policy.MaxInterval = 20 * s.retryBase
	b := backoff.WithContext(backoff.WithMaxRetries(policy, s.retries), ctx)

	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		s.metrics.IncLedgerRetries()
		s.logger.Warn().Err(err).Dur("wait", wait).Str("vote_id", vote.ID.String()).Msg("retrying vote insert")
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorageTransient) {
			return nil, fmt.Errorf("cast vote after %d retries: %w", s.retries, err)
		}
		return nil, err
	}
	return candidate, nil
}

func (s *voteService) MyVote(ctx context.Context, voterID, electionID uuid.UUID) (*domain.Vote, error) {
	return s.ledger.GetVote(ctx, voterID, electionID)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrVotingClosed):
		return "voting_closed"
	case errors.Is(err, domain.ErrDuplicateVote):
		return "duplicate_vote"
	case errors.Is(err, domain.ErrIneligibleVoter):
		return "ineligible"
	case errors.Is(err, domain.ErrStorageTransient):
		return "storage_transient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
