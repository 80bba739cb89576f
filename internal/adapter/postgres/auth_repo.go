// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"sessiondemo/internal/domain"
)

// GetByUsername retrieves a user by username. Returns (nil, nil) when the
// user does not exist.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = $1",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id, username, password_hash, created_at",
		username, passwordHash, time.Now(),
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// SessionRepo implements session repository operations on DB. The session
// payload (user snapshot plus visit counter) lives in the data column; the
// token and expiry are first-class columns so lookups and sweeps stay
// indexed.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

type sessionData struct {
	User       sessionUser `json:"user"`
	VisitCount int         `json:"visitCount"`
}

type sessionUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func encodeData(s *domain.Session) ([]byte, error) {
	return json.Marshal(sessionData{
		User: sessionUser{
			ID:           s.User.ID,
			Username:     s.User.Username,
			PasswordHash: s.User.PasswordHash,
			CreatedAt:    s.User.CreatedAt,
		},
		VisitCount: s.VisitCount,
	})
}

func decodeData(raw []byte, s *domain.Session) error {
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	s.User = domain.User{
		ID:           data.User.ID,
		Username:     data.User.Username,
		PasswordHash: data.User.PasswordHash,
		CreatedAt:    data.User.CreatedAt,
	}
	s.VisitCount = data.VisitCount
	return nil
}

// Create persists a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	raw, err := encodeData(s)
	if err != nil {
		return err
	}
	_, err = r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, expires_at, data, created_at) VALUES ($1, $2, $3, $4)",
		s.Token, s.ExpiresAt, raw, s.CreatedAt,
	)
	return err
}

// Get retrieves a live session by token. Expired rows are filtered in the
// query, so a session past its time is invisible even before the sweeper
// deletes it. Returns (nil, nil) when no live session exists.
func (r *SessionRepo) Get(ctx context.Context, token string) (*domain.Session, error) {
	var (
		s   domain.Session
		raw []byte
	)
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, expires_at, data, created_at FROM sessions WHERE token = $1 AND expires_at > $2",
		token, time.Now(),
	).Scan(&s.Token, &s.ExpiresAt, &raw, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := decodeData(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update persists a mutated session payload. Absent or expired rows yield
// domain.ErrNotFound.
func (r *SessionRepo) Update(ctx context.Context, s *domain.Session) error {
	raw, err := encodeData(s)
	if err != nil {
		return err
	}
	res, err := r.db.sql.ExecContext(ctx,
		"UPDATE sessions SET data = $2 WHERE token = $1 AND expires_at > $3",
		s.Token, raw, time.Now(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete deletes a session by token. Deleting a missing session is a no-op.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteExpired deletes all expired sessions and reports how many rows were
// removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= $1", time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
