// Package memory implements an in-memory session store for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"perritofeliz/internal/domain"
)

// SessionRepo keeps sessions in a map guarded by a mutex.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	now      func() time.Time
}

// NewSessionRepo creates an empty store.
func NewSessionRepo() *SessionRepo {
	return &SessionRepo{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// Create stores a copy of s under its ID.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

// Get returns a copy of the session, or nil when it is unknown.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// Delete removes the session. Unknown IDs are ignored.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// DeleteExpired removes every session past its expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *SessionRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
