package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/auth"
)

// VolunteerService checks the shared volunteer password and issues sessions.
//
//	VolunteerHandler (HTTP) → VolunteerService → PasswordService (bcrypt)
//	                                           ↘ TokenService (JWT)
//
// There are no volunteer accounts: everyone helping at the event knows the
// same password. The plain password only lives in configuration; the
// service keeps its bcrypt hash, computed once at startup.
type VolunteerService struct {
	hash      string
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewVolunteerService hashes password and returns a service ready to log
// volunteers in.
func NewVolunteerService(
	password string,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) (*VolunteerService, error) {
	if password == "" {
		return nil, errors.New("volunteer password must not be empty")
	}
	hash, err := passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing volunteer password: %w", err)
	}
	return &VolunteerService{
		hash:      hash,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}, nil
}

// VolunteerSession is the outcome of a successful login. The handler puts
// Token in the session cookie.
type VolunteerSession struct {
	Token     string
	ExpiresAt time.Time
}

// Login checks password and issues a session token.
func (s *VolunteerService) Login(password string) (*VolunteerSession, error) {
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	err := s.passwords.Verify(s.hash, password)
	if err != nil && len(password) > 72 {
		// Such a password could never have been hashed.
		err = auth.ErrInvalidPassword
	}
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn("volunteer login rejected")
			return nil, apperror.Unauthorized("invalid password")
		}
		return nil, fmt.Errorf("verifying volunteer password: %w", err)
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("issuing volunteer token: %w", err)
	}
	_, exp, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("reading back volunteer token: %w", err)
	}

	s.logger.Info("volunteer logged in")
	return &VolunteerSession{Token: token, ExpiresAt: exp}, nil
}

// Tokens exposes the token service for the route middleware.
func (s *VolunteerService) Tokens() *auth.TokenService {
	return s.tokens
}
