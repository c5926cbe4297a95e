package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"carbon/internal/domain"
)

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u := &domain.User{ID: "u1", Name: "Bob", Email: "bob@example.com", Password: "secret1"}
	if err := db.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := db.GetByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != "u1" {
		t.Fatal("failed to retrieve user by email")
	}

	// Email match is case-sensitive
	got, _ = db.GetByEmail(ctx, "Bob@example.com")
	if got != nil {
		t.Error("expected no match for differently cased email")
	}

	got, err = db.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Email != "bob@example.com" {
		t.Fatal("failed to retrieve user by id")
	}

	if err := db.Create(ctx, &domain.User{ID: "u2", Email: "bob@example.com"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}

	if err := db.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Delete(ctx, "u1"); err != nil {
		t.Errorf("Delete of a missing user: %v", err)
	}
	if got, _ := db.GetByEmail(ctx, "bob@example.com"); got != nil {
		t.Error("deleted user is still stored")
	}
	if err := db.Create(ctx, &domain.User{ID: "u3", Email: "bob@example.com"}); err != nil {
		t.Errorf("email should be free after Delete: %v", err)
	}
}

func TestSaveFootprint(t *testing.T) {
	db := New()
	ctx := context.Background()
	_ = db.Create(ctx, &domain.User{ID: "u1", Email: "a@b.cz"})

	var f domain.Footprint
	f.Increment(domain.Car)
	h := domain.History{}.Prepend(domain.NewActivityEntry(domain.EntryAdd, domain.Car, 1, time.Now()))

	ok, err := db.SaveFootprint(ctx, "u1", f, h)
	if err != nil || !ok {
		t.Fatalf("SaveFootprint: ok=%v err=%v", ok, err)
	}

	u, _ := db.GetByID(ctx, "u1")
	if u.Footprint.Count(domain.Car) != 1 {
		t.Errorf("expected car count 1, got %d", u.Footprint.Count(domain.Car))
	}
	if len(u.History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(u.History))
	}

	// Mutating the returned copy must not leak into the store
	u.Footprint.Increment(domain.Car)
	again, _ := db.GetByID(ctx, "u1")
	if again.Footprint.Count(domain.Car) != 1 {
		t.Error("store was mutated through a returned copy")
	}

	ok, _ = db.SaveFootprint(ctx, "missing", f, h)
	if ok {
		t.Error("expected false for unknown user")
	}
}

func TestSessionStore(t *testing.T) {
	db := New()
	ctx := context.Background()

	s, err := db.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if s != nil {
		t.Fatal("expected no session")
	}

	if err := db.Set(ctx, domain.Session{UserID: "u1", Name: "Bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s, _ = db.Current(ctx)
	if s == nil || s.UserID != "u1" {
		t.Fatalf("expected session for u1, got %+v", s)
	}

	_ = db.Clear(ctx)
	_ = db.Clear(ctx)
	s, _ = db.Current(ctx)
	if s != nil {
		t.Error("expected nil (cleared)")
	}
}
