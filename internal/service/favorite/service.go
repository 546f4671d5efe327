package favorite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service errors
var ErrMalformed = errors.New("malformed favorite")

// Favorite marks a listing for a profile. At most one exists per (profile, listing) pair.
type Favorite struct {
	ProfileID string
	ListingID string
	CreatedAt time.Time
}

// New validates the pair.
func New(profileID, listingID string) (Favorite, error) {
	for _, id := range []string{profileID, listingID} {
		if id == "" || strings.ContainsAny(id, "/_") {
			return Favorite{}, fmt.Errorf("%w: id %q", ErrMalformed, id)
		}
	}
	return Favorite{ProfileID: profileID, ListingID: listingID}, nil
}

// DocID is the storage key; it makes the pair unique.
func (f Favorite) DocID() string {
	return f.ProfileID + "_" + f.ListingID
}

// Service defines favorite operations.
//
// Add and Remove are idempotent: adding an existing pair returns the stored favorite and
// removing an absent pair succeeds.
type Service interface {
	List(ctx context.Context, profileID string) ([]Favorite, error)
	Add(ctx context.Context, profileID, listingID string) (Favorite, error)
	Remove(ctx context.Context, profileID, listingID string) error
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	if errors.Is(err, ErrMalformed) {
		return "malformed"
	}
	return "internal_error"
}
