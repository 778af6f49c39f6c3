package app

import (
	"errors"
	"testing"
	"time"

	"perritofeliz/internal/domain"
)

func TestResetTokens_RoundTrip(t *testing.T) {
	rt := NewResetTokens([]byte("secret"))
	tok, err := rt.Issue(domain.PasswordResetContext{Email: "ana@perritofeliz.co", ResetToken: "rt-1"})
	if err != nil {
		t.Fatal(err)
	}
	rc, err := rt.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if rc.Email != "ana@perritofeliz.co" || rc.ResetToken != "rt-1" {
		t.Errorf("got %+v", rc)
	}
}

func TestResetTokens_Rejects(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	rt := NewResetTokens([]byte("secret"))
	rt.now = func() time.Time { return now }
	tok, err := rt.Issue(domain.PasswordResetContext{Email: "ana@perritofeliz.co", ResetToken: "rt-1"})
	if err != nil {
		t.Fatal(err)
	}

	other := NewResetTokens([]byte("other"))
	other.now = rt.now
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidResetContext) {
		t.Errorf("wrong secret: %v", err)
	}

	rt.now = func() time.Time { return now.Add(ResetTokenTTL + time.Second) }
	if _, err := rt.Parse(tok); !errors.Is(err, ErrInvalidResetContext) {
		t.Errorf("expired: %v", err)
	}

	if _, err := rt.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidResetContext) {
		t.Errorf("garbage: %v", err)
	}

	if _, err := NewResetTokens(nil).Issue(domain.PasswordResetContext{}); err == nil {
		t.Error("expected error for empty secret")
	}
}
