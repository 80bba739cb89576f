package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessiondemo/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	createFn        func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash)
	}
	return &domain.User{ID: 1, Username: username, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s *domain.Session) error
	getFn           func(ctx context.Context, token string) (*domain.Session, error)
	updateFn        func(ctx context.Context, s *domain.Session) error
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) Get(ctx context.Context, token string) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Update(ctx context.Context, s *domain.Session) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	hash := hashOf(t, "testpass123")

	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "testuser", PasswordHash: hash}, nil
		},
	}

	var created *domain.Session
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, s *domain.Session) error {
			created = s
			return nil
		},
	}

	svc := NewAuthService(users, sessions)
	before := time.Now()
	session, err := svc.Login(ctx, "testuser", "testpass123", time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.Token == "" {
		t.Error("expected token, got empty string")
	}
	if created == nil {
		t.Fatal("expected session to be persisted")
	}
	if created.User.Username != "testuser" {
		t.Errorf("expected user snapshot, got %+v", created.User)
	}
	if created.VisitCount != 0 {
		t.Errorf("expected visit count 0, got %d", created.VisitCount)
	}

	want := before.Add(time.Hour)
	if created.ExpiresAt.Before(want) || created.ExpiresAt.After(want.Add(time.Second)) {
		t.Errorf("expected expiry around %v, got %v", want, created.ExpiresAt)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	ctx := context.Background()
	hash := hashOf(t, "correctpass")

	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "testuser", PasswordHash: hash}, nil
		},
	}

	createCalled := false
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, s *domain.Session) error {
			createCalled = true
			return nil
		},
	}

	svc := NewAuthService(users, sessions)
	_, err := svc.Login(ctx, "testuser", "wrongpass", time.Hour)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if createCalled {
		t.Error("no session should be created on a failed login")
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	ctx := context.Background()

	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{})
	_, err := svc.Login(ctx, "nosuchuser", "whatever", time.Hour)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Register_ThenLogin(t *testing.T) {
	ctx := context.Background()

	var stored *domain.User
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			if stored != nil && stored.Username == username {
				return stored, nil
			}
			return nil, nil
		},
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			stored = &domain.User{ID: 1, Username: username, PasswordHash: passwordHash}
			return stored, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})
	if err := svc.Register(ctx, "alice", "secret", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if stored == nil {
		t.Fatal("expected user to be created")
	}
	if stored.PasswordHash == "secret" {
		t.Error("password must not be stored in the clear")
	}

	session, err := svc.Login(ctx, "alice", "secret", time.Hour)
	if err != nil {
		t.Fatalf("login after register: %v", err)
	}
	if session.User.Username != "alice" {
		t.Errorf("expected alice snapshot, got %q", session.User.Username)
	}
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	ctx := context.Background()

	createCalled := false
	users := &mockUserRepo{
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			createCalled = true
			return nil, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})
	err := svc.Register(ctx, "alice", "secret", "different")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
	if createCalled {
		t.Error("no user should be created on mismatch")
	}
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	ctx := context.Background()

	createCalled := false
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: username}, nil
		},
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			createCalled = true
			return nil, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})
	err := svc.Register(ctx, "alice", "secret", "secret")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	if createCalled {
		t.Error("no duplicate user row should be created")
	}
}

func TestAuthService_RecordVisit_Increments(t *testing.T) {
	ctx := context.Background()

	stored := &domain.Session{
		Token:      "tok",
		User:       domain.User{ID: 1, Username: "alice"},
		VisitCount: 4,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	sessions := &mockSessionRepo{
		getFn: func(ctx context.Context, token string) (*domain.Session, error) {
			cp := *stored
			return &cp, nil
		},
		updateFn: func(ctx context.Context, s *domain.Session) error {
			stored = s
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions)
	count, session, err := svc.RecordVisit(ctx, "tok")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}
	if session.VisitCount != 5 || stored.VisitCount != 5 {
		t.Error("expected incremented count to be persisted")
	}
}

func TestAuthService_RecordVisit_NotFound(t *testing.T) {
	ctx := context.Background()

	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{})
	_, _, err := svc.RecordVisit(ctx, "gone")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_RecordVisit_ExpiredDuringUpdate(t *testing.T) {
	ctx := context.Background()

	sessions := &mockSessionRepo{
		getFn: func(ctx context.Context, token string) (*domain.Session, error) {
			return &domain.Session{Token: token, ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
		updateFn: func(ctx context.Context, s *domain.Session) error {
			return domain.ErrNotFound
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions)
	_, _, err := svc.RecordVisit(ctx, "tok")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_ValidateSession_NotFound(t *testing.T) {
	ctx := context.Background()

	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{})
	_, err := svc.ValidateSession(ctx, "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	deleted := ""
	sessions := &mockSessionRepo{
		deleteFn: func(ctx context.Context, token string) error {
			deleted = token
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions)
	if err := svc.Logout(ctx, "tok"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted != "tok" {
		t.Errorf("expected tok to be deleted, got %q", deleted)
	}
}
