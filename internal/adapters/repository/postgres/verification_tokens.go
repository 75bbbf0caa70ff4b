package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/evote/internal/core/domain"
)

func (r *voterRepository) Register(ctx context.Context, voter *domain.Voter, token domain.VerificationToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := insertVoter(ctx, tx, voter); err != nil {
		return err
	}

	query := `
		INSERT INTO verification_tokens (token, voter_id, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, query, token.Token, token.VoterID, token.CreatedAt); err != nil {
		return classify(err, "store verification token")
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "commit registration")
	}
	return nil
}

func (r *voterRepository) ConsumeVerificationToken(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, classify(err, "begin transaction")
	}
	defer tx.Rollback()

	var voterID uuid.UUID
	err = tx.QueryRowContext(ctx, `DELETE FROM verification_tokens WHERE token = $1 RETURNING voter_id`, token).Scan(&voterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, domain.ErrTokenNotFound
		}
		return uuid.Nil, classify(err, "consume verification token")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE voters SET is_verified = TRUE WHERE id = $1`, voterID); err != nil {
		return uuid.Nil, classify(err, "verify voter")
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return voterID, nil
}
