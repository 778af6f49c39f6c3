// Package domain contains the core business entities and interfaces.
package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// Credentials are collected by the login form and never stored.
type Credentials struct {
	DocumentNumber string `json:"documentNumber"`
	Password       string `json:"password"`
	CaptchaToken   string `json:"captchaToken"`
}

// User is the profile the backend returns for an authenticated account.
type User struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	Role           string `json:"role,omitempty"`
}

// ID is an identifier the backend may encode as a JSON string or number.
type ID string

// UnmarshalJSON accepts both "7" and 7.
func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// LoginResult is what a backend returns on a successful login.
type LoginResult struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Session represents an active dashboard session.
type Session struct {
	ID           string
	BackendToken string
	User         User
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository defines the port for session persistence operations.
// Get returns (nil, nil) when the session does not exist.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}

// PasswordResetContext binds the last step of the reset flow to a verified code.
type PasswordResetContext struct {
	Email      string
	ResetToken string
}

type backendTokenKey struct{}

// WithBackendToken returns a context carrying the backend token of the caller.
func WithBackendToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, backendTokenKey{}, token)
}

// BackendToken returns the backend token stored by WithBackendToken.
func BackendToken(ctx context.Context) string {
	v, _ := ctx.Value(backendTokenKey{}).(string)
	return v
}

// LoginLimiter throttles login attempts per key (document number or client IP).
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
