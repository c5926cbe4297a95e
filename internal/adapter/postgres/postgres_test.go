package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"carbon/internal/domain"

	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	connStr := os.Getenv("CARBON_TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("CARBON_TEST_DATABASE_URL not set")
	}
	db, err := Open(connStr)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Clear(context.Background())
		_ = db.Close()
	})
	return db
}

func TestUserRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id := uuid.NewString()
	email := id + "@example.com"
	if err := db.Create(ctx, &domain.User{ID: id, Name: "Eva", Email: email, Password: "secret1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Create(ctx, &domain.User{ID: uuid.NewString(), Name: "Eva", Email: email, Password: "x"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	var f domain.Footprint
	f.Increment(domain.Recycling)
	f.Increment(domain.Shopping)
	h := domain.History{}.Prepend(domain.NewActivityEntry(domain.EntryAdd, domain.Shopping, 1, time.Now()))

	ok, err := db.SaveFootprint(ctx, id, f, h)
	if err != nil || !ok {
		t.Fatalf("SaveFootprint: ok=%v err=%v", ok, err)
	}

	u, err := db.GetByEmail(ctx, email)
	if err != nil || u == nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Footprint != f {
		t.Errorf("footprint mismatch: got %v want %v", u.Footprint.Counts(), f.Counts())
	}
	if len(u.History) != 1 || u.History[0].Category != domain.Shopping {
		t.Errorf("unexpected history: %+v", u.History)
	}

	if err := db.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if u, err := db.GetByID(ctx, id); err != nil || u != nil {
		t.Errorf("GetByID after Delete = %+v, %v", u, err)
	}
}

func TestSessionSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id := uuid.NewString()
	if err := db.Create(ctx, &domain.User{ID: id, Name: "Jan", Email: id + "@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Set(ctx, domain.Session{UserID: id, Name: "Jan", Email: id + "@example.com"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s, err := db.Current(ctx)
	if err != nil || s == nil || s.UserID != id {
		t.Fatalf("Current: %+v %v", s, err)
	}
	if err := db.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	s, _ = db.Current(ctx)
	if s != nil {
		t.Error("expected no session after Clear")
	}
}
