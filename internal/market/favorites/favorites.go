// Package favorites keeps one profile's favorited listings in the query cache.
package favorites

import (
	"context"

	"github.com/janisto/campus-market/internal/market/cache"
	"github.com/janisto/campus-market/internal/market/marketerr"
	"github.com/janisto/campus-market/internal/market/mutation"
	"github.com/janisto/campus-market/internal/service/favorite"
)

const resourceType = "favorite"

// Set is the favorites of one profile.
type Set struct {
	profileID string
	svc       favorite.Service
	coord     *mutation.Coordinator
}

// New binds a set to profileID.
func New(coord *mutation.Coordinator, svc favorite.Service, profileID string) *Set {
	return &Set{profileID: profileID, svc: svc, coord: coord}
}

// Key is the cache key of the profile's favorites.
func (s *Set) Key() cache.Key {
	return cache.NewKey(cache.ResourceFavorites, s.profileID)
}

// List returns the profile's favorites, newest first.
func (s *Set) List(ctx context.Context) ([]favorite.Favorite, error) {
	res, err := cache.Read(ctx, s.coord.Store(), s.Key(), func(ctx context.Context) ([]favorite.Favorite, error) {
		return s.svc.List(ctx, s.profileID)
	})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// IsFavorited reports whether listingID is in the cached list.
func (s *Set) IsFavorited(ctx context.Context, listingID string) (bool, error) {
	favs, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	return Contains(favs, listingID), nil
}

// Contains reports whether favs holds listingID.
func Contains(favs []favorite.Favorite, listingID string) bool {
	for _, f := range favs {
		if f.ListingID == listingID {
			return true
		}
	}
	return false
}

// Add favorites listingID. Adding a listing twice keeps one favorite.
func (s *Set) Add(ctx context.Context, listingID string) (favorite.Favorite, error) {
	const op = "favorite"
	if err := s.check(op, listingID); err != nil {
		return favorite.Favorite{}, err
	}
	return mutation.Run(ctx, s.coord, mutation.Mutation[favorite.Favorite]{
		Name:         op,
		Actor:        s.profileID,
		ResourceType: resourceType,
		ResourceID:   listingID,
		Write: func(ctx context.Context, _ []string) (favorite.Favorite, error) {
			return s.svc.Add(ctx, s.profileID, listingID)
		},
		Invalidate: []cache.Key{s.Key()},
	})
}

// Remove unfavorites listingID. Removing an absent favorite succeeds.
func (s *Set) Remove(ctx context.Context, listingID string) error {
	const op = "unfavorite"
	if err := s.check(op, listingID); err != nil {
		return err
	}
	_, err := mutation.Run(ctx, s.coord, mutation.Mutation[struct{}]{
		Name:         op,
		Actor:        s.profileID,
		ResourceType: resourceType,
		ResourceID:   listingID,
		Write: func(ctx context.Context, _ []string) (struct{}, error) {
			return struct{}{}, s.svc.Remove(ctx, s.profileID, listingID)
		},
		Invalidate: []cache.Key{s.Key()},
	})
	return err
}

func (s *Set) check(op, listingID string) error {
	if _, err := favorite.New(s.profileID, listingID); err != nil {
		return marketerr.Validation(op, map[string]string{"listingId": "Invalid listing"})
	}
	return nil
}
