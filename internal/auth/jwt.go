// Package auth implements the volunteer session.
//
// VOLUNTEER FLOW:
//  1. A volunteer posts the shared event password to /api/volunteer/login.
//  2. The server checks it against the bcrypt hash computed at startup.
//  3. On success it issues a signed JWT in the HttpOnly "volunteer_token"
//     cookie, valid for one event day.
//  4. Score and game writes pass through RequireVolunteer, which validates
//     the cookie without any store lookup.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"volunteer","iss":"arcade-leaderboard","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionTTL is how long a volunteer stays logged in.
	SessionTTL = 12 * time.Hour

	// VolunteerSubject is the subject of every volunteer token. There are no
	// individual volunteer accounts, only the shared role.
	VolunteerSubject = "volunteer"

	issuer = "arcade-leaderboard"
)

// TokenService signs and validates session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a volunteer session token valid for SessionTTL.
func (s *TokenService) Generate() (string, error) {
	return s.GenerateWithDuration(VolunteerSubject, SessionTTL)
}

// GenerateWithDuration issues a token for subject expiring after d. A
// negative d yields an already expired token, which the tests rely on.
func (s *TokenService) GenerateWithDuration(subject string, d time.Duration) (string, error) {
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token and returns its subject and expiry.
//
// The jwt library checks the signature, expiry, issuer and algorithm.
// Pinning HS256 with WithValidMethods blocks the "alg: none" confusion
// attack.
func (s *TokenService) Validate(tokenStr string) (string, time.Time, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", time.Time{}, fmt.Errorf("auth: token expired")
		}
		return "", time.Time{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", time.Time{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", time.Time{}, fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, c.ExpiresAt.Time, nil
}
