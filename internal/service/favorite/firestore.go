package favorite

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

const favoritesCollection = "favorites"

type firestoreFavorite struct {
	ProfileID string    `firestore:"profile_id"`
	ListingID string    `firestore:"listing_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

// FirestoreStore implements Service using Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// List returns the profile's favorites, newest first. Malformed documents are skipped.
func (s *FirestoreStore) List(ctx context.Context, profileID string) ([]Favorite, error) {
	it := s.client.Collection(favoritesCollection).
		Where("profile_id", "==", profileID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	var out []Favorite
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var ff firestoreFavorite
		if err := doc.DataTo(&ff); err != nil {
			applog.LogWarn(ctx, "skipping undecodable favorite", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		f, err := New(ff.ProfileID, ff.ListingID)
		if err != nil || f.DocID() != doc.Ref.ID {
			applog.LogWarn(ctx, "skipping malformed favorite", zap.String("id", doc.Ref.ID))
			continue
		}
		f.CreatedAt = ff.CreatedAt
		out = append(out, f)
	}
}

// Add creates the favorite unless it already exists.
func (s *FirestoreStore) Add(ctx context.Context, profileID, listingID string) (Favorite, error) {
	f, err := New(profileID, listingID)
	if err != nil {
		return Favorite{}, err
	}
	docRef := s.client.Collection(favoritesCollection).Doc(f.DocID())
	ff := firestoreFavorite{ProfileID: profileID, ListingID: listingID, CreatedAt: time.Now().UTC()}

	_, err = docRef.Create(ctx, ff)
	if status.Code(err) == codes.AlreadyExists {
		doc, getErr := docRef.Get(ctx)
		if getErr == nil && doc.DataTo(&ff) == nil {
			f.CreatedAt = ff.CreatedAt
			return f, nil
		}
		err = getErr
	}
	if err != nil {
		applog.LogAuditEvent(ctx, "favorite", profileID, "favorite", f.DocID(), applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return Favorite{}, err
	}

	applog.LogAuditEvent(ctx, "favorite", profileID, "favorite", f.DocID(), applog.ResultSuccess, nil)
	f.CreatedAt = ff.CreatedAt
	return f, nil
}

// Remove deletes the favorite. Deleting a missing document succeeds in Firestore.
func (s *FirestoreStore) Remove(ctx context.Context, profileID, listingID string) error {
	f, err := New(profileID, listingID)
	if err != nil {
		return err
	}
	if _, err := s.client.Collection(favoritesCollection).Doc(f.DocID()).Delete(ctx); err != nil {
		applog.LogAuditEvent(ctx, "unfavorite", profileID, "favorite", f.DocID(), applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return err
	}

	applog.LogAuditEvent(ctx, "unfavorite", profileID, "favorite", f.DocID(), applog.ResultSuccess, nil)
	return nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
