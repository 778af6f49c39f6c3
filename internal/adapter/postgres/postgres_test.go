package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"perritofeliz/internal/domain"
)

// Runs against a real database when PF_TEST_DATABASE_URL is set.
func TestSessionRepo_Integration(t *testing.T) {
	dsn := os.Getenv("PF_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PF_TEST_DATABASE_URL not set")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close() //nolint:errcheck

	repo := NewSessionRepo(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	id := uuid.NewString()

	s := &domain.Session{
		ID:           id,
		BackendToken: "jwt-mock",
		User:         domain.User{ID: "1", Name: "Perrito"},
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
	}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.User.Name != "Perrito" || !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Fatalf("got %+v", got)
	}

	expired := &domain.Session{ID: uuid.NewString(), User: domain.User{}, ExpiresAt: now.Add(-time.Minute), CreatedAt: now}
	if err := repo.Create(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.Get(ctx, expired.ID); got != nil {
		t.Error("expired session should be gone")
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.Get(ctx, id); got != nil {
		t.Error("session should be gone")
	}
}
