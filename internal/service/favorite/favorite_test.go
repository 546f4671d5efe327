package favorite

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/firestore"

	"github.com/janisto/campus-market/internal/testutil"
)

func TestNew(t *testing.T) {
	f, err := New("user-1", "listing-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.DocID() != "user-1_listing-1" {
		t.Fatalf("unexpected doc ID %q", f.DocID())
	}

	for _, pair := range [][2]string{{"", "l"}, {"u", ""}, {"a_b", "l"}, {"u", "x/y"}} {
		if _, err := New(pair[0], pair[1]); !errors.Is(err, ErrMalformed) {
			t.Errorf("New(%q, %q): expected ErrMalformed, got %v", pair[0], pair[1], err)
		}
	}
}

func TestMockAddIdempotent(t *testing.T) {
	svc := NewMockFavoriteService()
	ctx := context.Background()

	first, err := svc.Add(ctx, "user-1", "listing-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Add(ctx, "user-1", "listing-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Count() != 1 {
		t.Fatalf("expected exactly one row, got %d", svc.Count())
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatal("expected the stored favorite back")
	}
}

func TestMockRemoveAbsent(t *testing.T) {
	svc := NewMockFavoriteService()
	if err := svc.Remove(context.Background(), "user-1", "listing-1"); err != nil {
		t.Fatalf("removing an absent favorite must succeed, got %v", err)
	}
}

func TestMockListNewestFirst(t *testing.T) {
	svc := NewMockFavoriteService()
	ctx := context.Background()
	_, _ = svc.Add(ctx, "user-1", "a")
	_, _ = svc.Add(ctx, "user-2", "b")
	_, _ = svc.Add(ctx, "user-1", "c")

	got, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ListingID != "c" || got[1].ListingID != "a" {
		t.Fatalf("unexpected favorites %+v", got)
	}
}

func setupFirestoreTest(t *testing.T) (*FirestoreStore, func()) {
	t.Helper()

	testutil.SkipIfFirestoreUnavailable(t)
	testutil.SetupEmulator(t)
	testutil.ClearFirestore(t)

	client, err := firestore.NewClient(context.Background(), testutil.ProjectID)
	if err != nil {
		t.Fatalf("failed to create Firestore client: %v", err)
	}
	return NewFirestoreStore(client), func() {
		testutil.ClearFirestore(t)
		_ = client.Close()
	}
}

func TestFirestoreAddRemove(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := store.Add(ctx, "user-1", "listing-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Add(ctx, "user-1", "listing-1"); err != nil {
		t.Fatalf("second add must succeed, got %v", err)
	}

	got, err := store.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one favorite, got %d", len(got))
	}

	if err := store.Remove(ctx, "user-1", "listing-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Remove(ctx, "user-1", "listing-1"); err != nil {
		t.Fatalf("second remove must succeed, got %v", err)
	}
	got, _ = store.List(ctx, "user-1")
	if len(got) != 0 {
		t.Fatalf("expected no favorites, got %d", len(got))
	}
}
