// Package redis implements the session store and the login limiter on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"perritofeliz/internal/domain"
)

// Open connects to Redis and pings it.
func Open(addr, password string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

const sessionPrefix = "pf:session:"

func sessionKey(id string) string { return sessionPrefix + id }

type sessionRecord struct {
	BackendToken string      `json:"backendToken"`
	User         domain.User `json:"user"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// SessionRepo stores sessions as JSON values whose Redis TTL matches the
// session expiry.
type SessionRepo struct {
	rdb *goredis.Client
	now func() time.Time
}

// NewSessionRepo wraps a Redis client as a SessionRepository.
func NewSessionRepo(rdb *goredis.Client) *SessionRepo {
	return &SessionRepo{rdb: rdb, now: time.Now}
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// Create stores s until its expiry.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(sessionRecord{
		BackendToken: s.BackendToken,
		User:         s.User,
		ExpiresAt:    s.ExpiresAt,
		CreatedAt:    s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.rdb.Set(ctx, sessionKey(s.ID), raw, ttl).Err()
}

// Get returns the session, or nil when the key is gone.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Session{
		ID:           id,
		BackendToken: rec.BackendToken,
		User:         rec.User,
		ExpiresAt:    rec.ExpiresAt,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// Delete removes the session key.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

// DeleteExpired is a no-op: Redis expires the keys itself.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error { return nil }
