package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/janisto/campus-market/internal/testutil"
)

func setupFirestoreTest(t *testing.T) (*FirestoreStore, func()) {
	t.Helper()

	testutil.SkipIfFirestoreUnavailable(t)
	testutil.SetupEmulator(t)
	testutil.ClearFirestore(t)

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, testutil.ProjectID)
	if err != nil {
		t.Fatalf("failed to create Firestore client: %v", err)
	}

	store := NewFirestoreStore(client)
	cleanup := func() {
		testutil.ClearFirestore(t)
		_ = client.Close()
	}

	return store, cleanup
}

func TestFirestoreCreate(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	p, err := store.Create(context.Background(), "user-123", studentParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Email != "ada@campus.edu" {
		t.Errorf("expected email to be lowercased, got %s", p.Email)
	}
	if len(p.Skills) != 2 {
		t.Errorf("expected 2 skills, got %v", p.Skills)
	}
}

func TestFirestoreCreateDuplicate(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := store.Create(ctx, "user-dup", studentParams()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := store.Create(ctx, "user-dup", studentParams()); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestFirestoreGet(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	ctx := context.Background()
	_, _ = store.Create(ctx, "staff-1", staffParams())

	p, err := store.Get(ctx, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != "STAFF" || !p.NonTeachingStaff {
		t.Errorf("unexpected role fields %+v", p)
	}
	if p.Department != "" {
		t.Errorf("expected no department, got %q", p.Department)
	}
}

func TestFirestoreGetNotFound(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	if _, err := store.Get(context.Background(), "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFirestoreGetMalformed(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	ctx := context.Background()
	_, err := store.client.Collection(profilesCollection).Doc("broken").Set(ctx, map[string]any{
		"full_name": "No Role",
		"skills":    []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("failed to seed document: %v", err)
	}

	if _, err := store.Get(ctx, "broken"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestFirestoreUpdatePartial(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	ctx := context.Background()
	created, _ := store.Create(ctx, "user-update", studentParams())

	time.Sleep(10 * time.Millisecond)

	role := "STAFF"
	nonTeaching := true
	updated, err := store.Update(ctx, "user-update", UpdateParams{
		Role:             &role,
		NonTeachingStaff: &nonTeaching,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Department != "" || updated.MatricNumber != "" {
		t.Errorf("expected department and matric cleared, got %+v", updated)
	}
	if updated.FullName != "Ada Obi" {
		t.Errorf("expected name unchanged, got %s", updated.FullName)
	}
	if !updated.UpdatedAt.After(created.CreatedAt) {
		t.Error("expected UpdatedAt to be after CreatedAt")
	}
}

func TestFirestoreUpdateNotFound(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	bio := "x"
	if _, err := store.Update(context.Background(), "missing", UpdateParams{Bio: &bio}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFirestoreDelete(t *testing.T) {
	store, cleanup := setupFirestoreTest(t)
	defer cleanup()

	ctx := context.Background()
	_, _ = store.Create(ctx, "user-delete", studentParams())

	if err := store.Delete(ctx, "user-delete"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "user-delete"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "user-delete"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
