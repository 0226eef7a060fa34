// Package session holds the waiter's API session token. The client never
// verifies token signatures (it has no signing secret) but it does read the
// registered claims so an expired session fails fast locally instead of
// burning a network round trip on a guaranteed 401.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("session has no token")
	ErrTokenExpired = errors.New("session token expired")
)

// Claims are the token claims the client cares about.
type Claims struct {
	UserID  string `json:"user_id"`
	VenueID string `json:"venue_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the authenticated context for API calls. Created at login,
// torn down at logout; passed explicitly to whatever needs it.
type Session struct {
	token  string
	claims *Claims
	now    func() time.Time
}

// New parses the token's claims without verifying the signature (the server
// does that on every request) and returns a session around it.
func New(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return &Session{token: token, claims: claims, now: time.Now}, nil
}

// Token returns the raw bearer token.
func (s *Session) Token() string { return s.token }

// Claims returns the parsed claims.
func (s *Session) Claims() Claims { return *s.claims }

// Valid returns ErrTokenExpired when the token's expiry has passed. Tokens
// without an expiry claim are treated as valid; the server remains the
// authority either way.
func (s *Session) Valid() error {
	if s.token == "" {
		return ErrNoToken
	}
	if s.claims.ExpiresAt != nil && s.claims.ExpiresAt.Before(s.now()) {
		return ErrTokenExpired
	}
	return nil
}
