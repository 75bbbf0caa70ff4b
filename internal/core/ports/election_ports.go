package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

type ElectionRepository interface {
	// Save inserts the election together with its candidates.
	Save(ctx context.Context, election *domain.Election) error
	// GetByID returns the election with its candidates loaded.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Election, error)
	// Delete removes the election, its candidates, votes and final result.
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	AddCandidate(ctx context.Context, candidate *domain.Candidate) error
	// FindCandidates returns the election's candidates by descending votes.
	FindCandidates(ctx context.Context, electionID uuid.UUID) ([]domain.Candidate, error)
	// FindOngoing, FindUpcoming and FindCompleted list active elections in
	// the given lifecycle window ordered by end date.
	FindOngoing(ctx context.Context, now time.Time) ([]*domain.Election, error)
	FindUpcoming(ctx context.Context, now time.Time) ([]*domain.Election, error)
	FindCompleted(ctx context.Context, now time.Time) ([]*domain.Election, error)
	// Counts returns the number of elections and candidates.
	Counts(ctx context.Context) (elections int64, candidates int64, err error)
}

type CandidateInput struct {
	Name        string
	Party       string
	Description string
}

type CreateElectionInput struct {
	Name       string
	StartAt    time.Time
	EndAt      time.Time
	Active     bool
	Candidates []CandidateInput
}

type ElectionService interface {
	Create(ctx context.Context, input CreateElectionInput) (*domain.Election, error)
	AddCandidate(ctx context.Context, electionID uuid.UUID, input CandidateInput) (*domain.Candidate, error)
	SetActive(ctx context.Context, electionID uuid.UUID, active bool) error
	Delete(ctx context.Context, electionID uuid.UUID) error
	Get(ctx context.Context, electionID uuid.UUID) (*domain.Election, error)
	Candidates(ctx context.Context, electionID uuid.UUID) (*domain.Election, []domain.Candidate, error)
	Overview(ctx context.Context, voterID uuid.UUID) (*domain.ElectionOverview, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}
