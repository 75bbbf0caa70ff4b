package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

var ErrInvalidToken = errors.New("invalid access token")

type AuthService struct {
	common
	voters    ports.VoterService
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(voters ports.VoterService, secret string, ttl time.Duration, opts ...Option) *AuthService {
	c := newCommon(opts)
	if secret == "" {
		c.logger.Warn().Msg("JWT secret not set")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AuthService{
		common:    c,
		voters:    voters,
		jwtSecret: []byte(secret),
		tokenTTL:  ttl,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	voter, err := s.voters.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	token, err := s.generateAccessToken(voter)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

func (s *AuthService) ParseToken(tokenString string) (*ports.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = domain.RoleVoter
	}
	return &ports.Principal{VoterID: id, Role: role}, nil
}

func (s *AuthService) generateAccessToken(voter *domain.Voter) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  voter.ID.String(),
		"role": voter.Role,
		"exp":  now.Add(s.tokenTTL).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
