package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type electionRepository struct {
	db *sql.DB
}

func NewElectionRepository(db *sql.DB) ports.ElectionRepository {
	return &electionRepository{
		db: db,
	}
}

func (r *electionRepository) Save(ctx context.Context, election *domain.Election) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "begin transaction")
	}
	defer tx.Rollback()

	queryElection := `
		INSERT INTO elections (id, name, start_date, end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, queryElection,
		election.ID, election.Name, election.StartAt, election.EndAt, election.Active, election.CreatedAt)
	if err != nil {
		return classify(err, "insert election")
	}

	queryCandidate := `
		INSERT INTO candidates (id, election_id, name, party, description, votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, queryCandidate)
	if err != nil {
		return fmt.Errorf("failed to prepare candidate statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range election.Candidates {
		_, err = stmt.ExecContext(ctx, c.ID, election.ID, c.Name, c.Party, c.Description, c.Votes, c.CreatedAt)
		if err != nil {
			return classify(err, "insert candidate")
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "commit transaction")
	}
	return nil
}

func (r *electionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Election, error) {
	queryElection := `
		SELECT id, name, start_date, end_date, is_active, created_at
		FROM elections
		WHERE id = $1
	`
	var e domain.Election
	err := r.db.QueryRowContext(ctx, queryElection, id).Scan(
		&e.ID, &e.Name, &e.StartAt, &e.EndAt, &e.Active, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, classify(err, "get election")
	}

	candidates, err := r.fetchCandidates(ctx, id, `ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	e.Candidates = candidates
	return &e, nil
}

func (r *electionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// candidates, votes and final results go with the election via ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM elections WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete election")
	}
	return expectOne(res, domain.ErrElectionNotFound)
}

func (r *electionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE elections SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return classify(err, "update election")
	}
	return expectOne(res, domain.ErrElectionNotFound)
}

func (r *electionRepository) AddCandidate(ctx context.Context, c *domain.Candidate) error {
	query := `
		INSERT INTO candidates (id, election_id, name, party, description, votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.ElectionID, c.Name, c.Party, c.Description, c.Votes, c.CreatedAt)
	return classify(err, "insert candidate")
}

func (r *electionRepository) FindCandidates(ctx context.Context, electionID uuid.UUID) ([]domain.Candidate, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM elections WHERE id = $1)`, electionID).Scan(&exists)
	if err != nil {
		return nil, classify(err, "check election")
	}
	if !exists {
		return nil, domain.ErrElectionNotFound
	}
	return r.fetchCandidates(ctx, electionID, `ORDER BY votes DESC, created_at ASC, id ASC`)
}

func (r *electionRepository) fetchCandidates(ctx context.Context, electionID uuid.UUID, order string) ([]domain.Candidate, error) {
	query := `
		SELECT id, election_id, name, party, description, votes, created_at
		FROM candidates
		WHERE election_id = $1
	` + order
	rows, err := r.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, classify(err, "get candidates")
	}
	defer rows.Close()

	candidates := []domain.Candidate{}
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Party, &c.Description, &c.Votes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}

func (r *electionRepository) FindOngoing(ctx context.Context, now time.Time) ([]*domain.Election, error) {
	return r.findActive(ctx, `start_date <= $1 AND end_date >= $1`, now)
}

func (r *electionRepository) FindUpcoming(ctx context.Context, now time.Time) ([]*domain.Election, error) {
	return r.findActive(ctx, `start_date > $1`, now)
}

func (r *electionRepository) FindCompleted(ctx context.Context, now time.Time) ([]*domain.Election, error) {
	return r.findActive(ctx, `end_date < $1`, now)
}

func (r *electionRepository) findActive(ctx context.Context, window string, now time.Time) ([]*domain.Election, error) {
	query := `
		SELECT id, name, start_date, end_date, is_active, created_at
		FROM elections
		WHERE is_active AND ` + window + `
		ORDER BY end_date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, classify(err, "list elections")
	}
	defer rows.Close()

	elections := []*domain.Election{}
	for rows.Next() {
		var e domain.Election
		if err := rows.Scan(&e.ID, &e.Name, &e.StartAt, &e.EndAt, &e.Active, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating elections: %w", err)
	}
	return elections, nil
}

func (r *electionRepository) Counts(ctx context.Context) (int64, int64, error) {
	var elections, candidates int64
	query := `SELECT (SELECT COUNT(*) FROM elections), (SELECT COUNT(*) FROM candidates)`
	if err := r.db.QueryRowContext(ctx, query).Scan(&elections, &candidates); err != nil {
		return 0, 0, classify(err, "count elections")
	}
	return elections, candidates, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
