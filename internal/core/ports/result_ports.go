package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

type ResultRepository interface {
	SaveFinal(ctx context.Context, result domain.FinalResult) error
	GetFinal(ctx context.Context, electionID uuid.UUID) (*domain.FinalResult, error)
}

//go:generate mockgen -destination=mocks/mock_result_cache.go -package=mocks . ResultCache

// ResultCache holds computed results views. Reads may be stale.
type ResultCache interface {
	Get(ctx context.Context, electionID uuid.UUID) (*domain.Results, bool, error)
	Set(ctx context.Context, results *domain.Results) error
	Invalidate(ctx context.Context, electionID uuid.UUID) error
}

type ResultService interface {
	GetResults(ctx context.Context, electionID uuid.UUID) (*domain.Results, error)
	// FinalizeCompleted persists the outcome of every completed election
	// that has none yet and returns how many were finalized.
	FinalizeCompleted(ctx context.Context) (int, error)
	AuditTally(ctx context.Context, electionID uuid.UUID) ([]domain.TallyDrift, error)
}
