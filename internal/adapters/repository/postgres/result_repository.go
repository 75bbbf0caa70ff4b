package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type resultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) ports.ResultRepository {
	return &resultRepository{
		db: db,
	}
}

// SaveFinal keeps the first final result stored for an election.
func (r *resultRepository) SaveFinal(ctx context.Context, result domain.FinalResult) error {
	query := `
		INSERT INTO final_results (election_id, outcome, winner_id, total_votes, finalized_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (election_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		result.ElectionID, string(result.Outcome), result.WinnerID, result.TotalVotes, result.FinalizedAt)
	return classify(err, "save final result")
}

func (r *resultRepository) GetFinal(ctx context.Context, electionID uuid.UUID) (*domain.FinalResult, error) {
	query := `
		SELECT election_id, outcome, winner_id, total_votes, finalized_at
		FROM final_results
		WHERE election_id = $1
	`
	var (
		fr      domain.FinalResult
		outcome string
		winner  uuid.NullUUID
	)
	err := r.db.QueryRowContext(ctx, query, electionID).Scan(&fr.ElectionID, &outcome, &winner, &fr.TotalVotes, &fr.FinalizedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrResultNotFound
		}
		return nil, classify(err, "get final result")
	}
	fr.Outcome = domain.Outcome(outcome)
	if winner.Valid {
		fr.WinnerID = &winner.UUID
	}
	return &fr, nil
}
