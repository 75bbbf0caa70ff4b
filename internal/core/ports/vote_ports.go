package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

// VoteLedger is the append-only record of votes. Implementations enforce
// the (voter, election) uniqueness constraint in storage.
type VoteLedger interface {
	// Cast inserts the vote and increments the candidate counter in a single
	// transaction and returns the updated candidate. A uniqueness violation
	// is reported as domain.ErrDuplicateVote, contention or connection loss
	// as domain.ErrStorageTransient.
	Cast(ctx context.Context, vote *domain.Vote) (*domain.Candidate, error)
	HasVoted(ctx context.Context, voterID, electionID uuid.UUID) (bool, error)
	GetVote(ctx context.Context, voterID, electionID uuid.UUID) (*domain.Vote, error)
	VotedElections(ctx context.Context, voterID uuid.UUID) (map[uuid.UUID]bool, error)
	// CountByCandidate counts ledger entries per candidate of an election.
	CountByCandidate(ctx context.Context, electionID uuid.UUID) (map[uuid.UUID]int64, error)
	Count(ctx context.Context) (int64, error)
}

type VoteInput struct {
	VoterID     uuid.UUID
	ElectionID  uuid.UUID
	CandidateID uuid.UUID
}

type VoteService interface {
	CastVote(ctx context.Context, input VoteInput) (*domain.CastReceipt, error)
	MyVote(ctx context.Context, voterID, electionID uuid.UUID) (*domain.Vote, error)
}
