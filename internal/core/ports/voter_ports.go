package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

type VoterRepository interface {
	Create(ctx context.Context, voter *domain.Voter) error
	// Register creates the voter together with its verification token; either
	// both are stored or neither is.
	Register(ctx context.Context, voter *domain.Voter, token domain.VerificationToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error)
	GetByEmail(ctx context.Context, email string) (*domain.Voter, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	NationalIDTaken(ctx context.Context, nationalID string) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, phone *string, dob *time.Time) error
	SetRole(ctx context.Context, id uuid.UUID, role string) error
	// ConsumeVerificationToken deletes the token and marks its voter verified
	// in one step, returning the voter id.
	ConsumeVerificationToken(ctx context.Context, token uuid.UUID) (uuid.UUID, error)
	Count(ctx context.Context) (int64, error)
}

type RegisterVoterInput struct {
	Username        string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	DateOfBirth     string
	Phone           string
	NationalID      string
}

type UpdateProfileInput struct {
	Phone       *string
	DateOfBirth *string
}

type VoterService interface {
	Register(ctx context.Context, input RegisterVoterInput) (*domain.Voter, error)
	Verify(ctx context.Context, token uuid.UUID) (*domain.Voter, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Voter, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*domain.Voter, error)
	// SetRole grants or revokes the admin role of the voter with email.
	SetRole(ctx context.Context, email, role string) (*domain.Voter, error)
}
