// Package service provides the business rule layer of the archive.
package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/session"
)

// AuthService wraps the session manager with input validation. All
// session state lives in the manager; this layer only rejects malformed
// input and normalizes the email before delegating.
type AuthService struct {
	sessions *session.Manager
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(sessions *session.Manager, logger zerolog.Logger) *AuthService {
	return &AuthService{
		sessions: sessions,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// Login authenticates the user and opens a session. Blank email or
// password is rejected before the identity store is consulted; the email
// is trimmed and lowercased first.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(password) == "" {
		return nil, ErrPasswordRequired
	}

	email = strings.ToLower(strings.TrimSpace(email))

	return s.sessions.Login(ctx, email, password)
}

// Logout clears the session. No business logic here.
func (s *AuthService) Logout(ctx context.Context) {
	s.sessions.Logout(ctx)
}

// ReAuthenticate re-verifies credentials without changing the session.
// Only the password is validated for blankness; the email comes from the
// session itself.
func (s *AuthService) ReAuthenticate(ctx context.Context, email, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}

	return s.sessions.ReAuthenticate(ctx, email, password)
}

// CheckAuthStatus returns the session stream unmodified. The replay-one
// semantics of the manager pass straight through to the caller.
func (s *AuthService) CheckAuthStatus() *session.Subscription {
	return s.sessions.Subscribe()
}

// Current returns the currently signed-in user, or nil.
func (s *AuthService) Current() *domain.User {
	return s.sessions.Current()
}
