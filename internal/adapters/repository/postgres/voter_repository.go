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

type voterRepository struct {
	db *sql.DB
}

func NewVoterRepository(db *sql.DB) ports.VoterRepository {
	return &voterRepository{db: db}
}

const voterColumns = `id, username, first_name, last_name, email, national_id, phone_number,
	date_of_birth, is_verified, role, password_hash, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *voterRepository) Create(ctx context.Context, voter *domain.Voter) error {
	return insertVoter(ctx, r.db, voter)
}

func insertVoter(ctx context.Context, db execer, voter *domain.Voter) error {
	query := `
		INSERT INTO voters (` + voterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := db.ExecContext(ctx, query,
		voter.ID, voter.Username, voter.FirstName, voter.LastName, voter.Email,
		voter.NationalID, voter.Phone, voter.DateOfBirth, voter.Verified, voter.Role,
		voter.PasswordHash, voter.CreatedAt,
	)
	return classify(err, "create voter")
}

func (r *voterRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error) {
	query := `SELECT ` + voterColumns + ` FROM voters WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *voterRepository) GetByEmail(ctx context.Context, email string) (*domain.Voter, error) {
	query := `SELECT ` + voterColumns + ` FROM voters WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *voterRepository) scanOne(row *sql.Row) (*domain.Voter, error) {
	var (
		v          domain.Voter
		nationalID sql.NullString
		phone      sql.NullString
		dob        sql.NullTime
	)
	err := row.Scan(&v.ID, &v.Username, &v.FirstName, &v.LastName, &v.Email, &nationalID, &phone,
		&dob, &v.Verified, &v.Role, &v.PasswordHash, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoterNotFound
		}
		return nil, classify(err, "get voter")
	}
	if nationalID.Valid {
		v.NationalID = &nationalID.String
	}
	if phone.Valid {
		v.Phone = &phone.String
	}
	if dob.Valid {
		d := dob.Time
		v.DateOfBirth = &d
	}
	return &v, nil
}

func (r *voterRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM voters WHERE email = $1)`, email)
}

func (r *voterRepository) NationalIDTaken(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM voters WHERE national_id = $1)`, nationalID)
}

func (r *voterRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, classify(err, "check voter uniqueness")
	}
	return found, nil
}

func (r *voterRepository) UpdateProfile(ctx context.Context, id uuid.UUID, phone *string, dob *time.Time) error {
	query := `
		UPDATE voters
		SET phone_number = COALESCE($2, phone_number),
		    date_of_birth = COALESCE($3::date, date_of_birth)
		WHERE id = $1
	`
	return r.execOne(ctx, "update voter profile", query, id, phone, dob)
}

func (r *voterRepository) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.execOne(ctx, "set voter role", `UPDATE voters SET role = $2 WHERE id = $1`, id, role)
}

func (r *voterRepository) execOne(ctx context.Context, action, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err, action)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if n == 0 {
		return domain.ErrVoterNotFound
	}
	return nil
}

func (r *voterRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voters`).Scan(&n); err != nil {
		return 0, classify(err, "count voters")
	}
	return n, nil
}
