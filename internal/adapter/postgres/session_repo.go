package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"perritofeliz/internal/domain"
)

// SessionRepo implements domain.SessionRepository on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	user, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	_, err = r.db.sql.ExecContext(ctx,
		"INSERT INTO dashboard_sessions (id, backend_token, user_json, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)",
		s.ID, s.BackendToken, user, s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	return err
}

// Get retrieves a session by ID.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var (
		s    domain.Session
		user []byte
	)
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, backend_token, user_json, expires_at, created_at FROM dashboard_sessions WHERE id = $1",
		id,
	).Scan(&s.ID, &s.BackendToken, &user, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(user, &s.User); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return &s, nil
}

// Delete deletes a session by ID.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM dashboard_sessions WHERE id = $1", id)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM dashboard_sessions WHERE expires_at <= $1", time.Now().UTC())
	return err
}
