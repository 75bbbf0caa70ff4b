package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrElectionNotFound  = fmt.Errorf("election %w", ErrNotFound)
	ErrCandidateNotFound = fmt.Errorf("candidate %w", ErrNotFound)
	ErrVoterNotFound     = fmt.Errorf("voter %w", ErrNotFound)
	ErrVoteNotFound      = fmt.Errorf("vote %w", ErrNotFound)
	ErrTokenNotFound     = fmt.Errorf("verification token %w", ErrNotFound)
	ErrResultNotFound    = fmt.Errorf("final result %w", ErrNotFound)

	ErrVotingClosed     = errors.New("voting is closed for this election")
	ErrDuplicateVote    = errors.New("voter has already voted in this election")
	ErrIneligibleVoter  = errors.New("voter is not eligible to vote")
	ErrStorageTransient = errors.New("storage temporarily unavailable")

	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidWindow     = fmt.Errorf("%w: election start must be before end", ErrInvalidInput)
	ErrUnderage          = fmt.Errorf("%w: voters must be %d or older", ErrInvalidInput, MinimumVotingAge)
	ErrPasswordMismatch  = fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	ErrEmailTaken        = errors.New("email already registered")
	ErrNationalIDTaken   = errors.New("national id already registered")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrPhoneTaken        = errors.New("phone number already registered")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrInternal          = errors.New("internal server error")
)

// Invalid builds a validation error for a single field.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
