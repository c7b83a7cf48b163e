// Package auth holds the session credential used for authenticated venue calls.
//
// The token is opaque to the client: it is sent as a bearer token and never
// verified or expired locally. When it happens to be a JWT, its subject and
// expiry are read without verification for log attribution only.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned for a blank session token.
var ErrEmptyToken = errors.New("session token is empty")

// Session is an authenticated session with the venue.
type Session struct {
	Token     string
	Subject   string    // JWT "sub" claim, empty for opaque tokens
	ExpiresAt time.Time // JWT "exp" claim, informational only
}

// NewSession wraps token in a Session.
func NewSession(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	s := &Session{Token: token}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		s.Subject = claims.Subject
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	return s, nil
}

// LoadSession reads a token from a file, as written by the wallet sign-in flow.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	s, err := NewSession(string(data))
	if err != nil {
		return nil, fmt.Errorf("token file %s: %w", path, err)
	}
	return s, nil
}

// Header returns the Authorization header for the session.
func (s *Session) Header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.Token)
	return h
}

// Redacted returns a form of the token that is safe to log.
func (s *Session) Redacted() string {
	if len(s.Token) <= 8 {
		return "***"
	}
	return s.Token[:4] + "..." + s.Token[len(s.Token)-4:]
}

// LogValue identifies the session in logs without exposing the token.
func (s *Session) LogValue() string {
	if s.Subject != "" {
		return s.Subject
	}
	return s.Redacted()
}
