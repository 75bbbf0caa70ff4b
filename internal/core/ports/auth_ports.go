package ports

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller placed in the request context.
type Principal struct {
	VoterID uuid.UUID
	Role    string
}

type AuthService interface {
	// Login returns a signed access token for valid credentials.
	Login(ctx context.Context, email, password string) (string, error)
	ParseToken(token string) (*Principal, error)
}
