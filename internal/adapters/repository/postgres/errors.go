package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vncsmyrnk/evote/internal/core/domain"
)

const (
	codeUniqueViolation     pq.ErrorCode = "23505"
	codeForeignKeyViolation pq.ErrorCode = "23503"
	codeCheckViolation      pq.ErrorCode = "23514"
	codeSerialization       pq.ErrorCode = "40001"
	codeDeadlock            pq.ErrorCode = "40P01"
)

// constraintErrors maps named constraints to the domain error they enforce.
var constraintErrors = map[string]error{
	"votes_voter_election_key":          domain.ErrDuplicateVote,
	"votes_voter_id_fkey":               domain.ErrVoterNotFound,
	"votes_election_id_fkey":            domain.ErrElectionNotFound,
	"votes_candidate_id_fkey":           domain.ErrCandidateNotFound,
	"voters_email_key":                  domain.ErrEmailTaken,
	"voters_username_key":               domain.ErrUsernameTaken,
	"voters_national_id_key":            domain.ErrNationalIDTaken,
	"voters_phone_number_key":           domain.ErrPhoneTaken,
	"candidates_election_id_fkey":       domain.ErrElectionNotFound,
	"final_results_election_id_fkey":    domain.ErrElectionNotFound,
	"verification_tokens_voter_id_fkey": domain.ErrVoterNotFound,
	"elections_window_check":            domain.ErrInvalidWindow,
}

// classify translates driver errors into domain errors. Constraint violations
// become the matching domain error; serialization failures, deadlocks and
// connection errors are wrapped with domain.ErrStorageTransient so callers can
// retry them.
func classify(err error, action string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation:
			if mapped, ok := constraintErrors[pqErr.Constraint]; ok {
				return mapped
			}
		case codeSerialization, codeDeadlock:
			return fmt.Errorf("failed to %s: %w: %w", action, domain.ErrStorageTransient, err)
		}
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("failed to %s: %w: %w", action, domain.ErrStorageTransient, err)
		}
	}
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("failed to %s: %w: %w", action, domain.ErrStorageTransient, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
