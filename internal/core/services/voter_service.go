package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

const dateLayout = "2006-01-02"

type voterService struct {
	common
	repo ports.VoterRepository
}

func NewVoterService(repo ports.VoterRepository, opts ...Option) ports.VoterService {
	return &voterService{
		common: newCommon(opts),
		repo:   repo,
	}
}

func (s *voterService) Register(ctx context.Context, input ports.RegisterVoterInput) (*domain.Voter, error) {
	now := s.now()

	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.NationalID = strings.TrimSpace(input.NationalID)

	switch {
	case input.Username == "":
		return nil, domain.Invalid("username is required")
	case input.FirstName == "" || input.LastName == "":
		return nil, domain.Invalid("first and last name are required")
	case input.Password == "":
		return nil, domain.Invalid("password is required")
	case input.Password != input.ConfirmPassword:
		return nil, domain.ErrPasswordMismatch
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, domain.Invalid("email is not valid")
	}

	dob, err := parseBirthDate(input.DateOfBirth, now)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}
	if input.NationalID != "" {
		taken, err := s.repo.NationalIDTaken(ctx, input.NationalID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrNationalIDTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	voter := &domain.Voter{
		ID:           uuid.New(),
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		NationalID:   optional(input.NationalID),
		Phone:        optional(input.Phone),
		DateOfBirth:  &dob,
		Role:         domain.RoleVoter,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	token := domain.VerificationToken{Token: uuid.New(), VoterID: voter.ID, CreatedAt: now}
	if err := s.repo.Register(ctx, voter, token); err != nil {
		return nil, err
	}

	s.metrics.IncVotersCreated()
	s.notifier.Notify(ctx, domain.NewEvent(domain.EventVoterRegistered, now).
		WithVoter(voter.ID).
		With("email", voter.Email).
		With("verification_token", token.Token.String()))
	s.logger.Info().Str("voter_id", voter.ID.String()).Msg("voter registered")

	return voter, nil
}

func (s *voterService) Verify(ctx context.Context, token uuid.UUID) (*domain.Voter, error) {
	voterID, err := s.repo.ConsumeVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("voter_id", voterID.String()).Msg("voter verified")
	return s.repo.GetByID(ctx, voterID)
}

func (s *voterService) Authenticate(ctx context.Context, email, password string) (*domain.Voter, error) {
	voter, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(voter.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredential
	}
	return voter, nil
}

func (s *voterService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *voterService) UpdateProfile(ctx context.Context, id uuid.UUID, input ports.UpdateProfileInput) (*domain.Voter, error) {
	var phone *string
	if input.Phone != nil {
		phone = optional(strings.TrimSpace(*input.Phone))
	}

	var dob *time.Time
	if input.DateOfBirth != nil {
		d, err := parseBirthDate(*input.DateOfBirth, s.now())
		if err != nil {
			return nil, err
		}
		dob = &d
	}

	if err := s.repo.UpdateProfile(ctx, id, phone, dob); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *voterService) SetRole(ctx context.Context, email, role string) (*domain.Voter, error) {
	if role != domain.RoleVoter && role != domain.RoleAdmin {
		return nil, domain.Invalid("unknown role %q", role)
	}
	voter, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRole(ctx, voter.ID, role); err != nil {
		return nil, err
	}
	voter.Role = role
	s.logger.Info().Str("voter_id", voter.ID.String()).Str("role", role).Msg("voter role changed")
	return voter, nil
}

// parseBirthDate parses a date of birth and rejects dates in the future or
// of voters younger than the minimum voting age at now.
func parseBirthDate(value string, now time.Time) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.Invalid("date_of_birth must be formatted as %s", dateLayout)
	}
	if d.After(now) {
		return time.Time{}, domain.Invalid("date_of_birth cannot be in the future")
	}
	if !domain.IsEligible(d, now) {
		return time.Time{}, domain.ErrUnderage
	}
	return d, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
