// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"sessiondemo/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password
	// was incorrect. Callers must not reveal which of the two it was.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the session does not exist or has
	// already expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUsernameTaken indicates that the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrPasswordMismatch indicates that password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// AuthService handles registration, authentication, and the session
// lifecycle.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
	}
}

// Login authenticates a user and creates a session valid for ttl. The full
// user record is snapshotted into the session, and the visit counter starts
// at zero. Missing user and wrong password are surfaced identically.
func (s *AuthService) Login(ctx context.Context, username, password string, ttl time.Duration) (*domain.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		log.Printf("login: user %q not found", username)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("login: wrong password for %q", username)
		return nil, ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		Token:      token,
		User:       *user,
		VisitCount: 0,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Register creates a new user. The confirmation must match the password and
// the username must be free. Registration never creates a session.
func (s *AuthService) Register(ctx context.Context, username, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.users.Create(ctx, username, string(hash))
	return err
}

// ValidateSession resolves a live session by token. Expired sessions are
// indistinguishable from absent ones.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// RecordVisit increments the session's visit counter and persists it,
// returning the new count. The read-modify-write is not isolated; concurrent
// visits to the same session may lose an increment.
func (s *AuthService) RecordVisit(ctx context.Context, token string) (int, *domain.Session, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return 0, nil, err
	}
	if session == nil {
		return 0, nil, ErrSessionNotFound
	}

	session.VisitCount++
	if err := s.sessions.Update(ctx, session); err != nil {
		// The session can expire between the read and the write.
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil, ErrSessionNotFound
		}
		return 0, nil, err
	}
	return session.VisitCount, session, nil
}

// Logout destroys a session. Destroying a session that no longer exists is
// not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// LoginWithUser creates a session for an already authenticated user (e.g.
// via SSO), auto-provisioning the account on first login.
func (s *AuthService) LoginWithUser(ctx context.Context, username string, ttl time.Duration) (*domain.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// SSO users carry no local password.
		user, err = s.users.Create(ctx, username, "")
		if err != nil {
			// Retry the lookup in case a concurrent callback won the insert.
			createErr := err
			user, err = s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, createErr
			}
		}
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		Token:     token,
		User:      *user,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
