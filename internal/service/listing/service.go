package listing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/janisto/campus-market/internal/market/catalog"
)

// Service errors
var (
	ErrNotFound  = errors.New("listing not found")
	ErrForbidden = errors.New("listing belongs to another profile")
	ErrMalformed = errors.New("malformed listing")
)

// Field limits.
const (
	MinTitleLength       = 5
	MaxTitleLength       = 100
	MinDescriptionLength = 20
	MaxDescriptionLength = 500
	MaxImages            = 5
)

// Listing is a stored listing.
type Listing struct {
	ID          string
	ProfileID   string
	Title       string
	Description string
	Price       float64
	Category    string
	Images      []string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fields are the owner-editable attributes of a listing.
type Fields struct {
	Title       string
	Description string
	Price       float64
	Category    string
	Images      []string
	// Status defaults to ACTIVE on create and is left unchanged on update when empty.
	Status string
}

// NewFields trims and validates listing attributes.
func NewFields(title, description string, price float64, category string, images []string) (Fields, error) {
	f := Fields{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Price:       price,
		Category:    category,
		Images:      images,
	}
	if err := f.Validate(); err != nil {
		return Fields{}, err
	}
	return f, nil
}

// Validate checks the stored-record invariants.
func (f Fields) Validate() error {
	if n := utf8.RuneCountInString(f.Title); n < MinTitleLength || n > MaxTitleLength {
		return fmt.Errorf("%w: title length %d", ErrMalformed, n)
	}
	if n := utf8.RuneCountInString(f.Description); n < MinDescriptionLength || n > MaxDescriptionLength {
		return fmt.Errorf("%w: description length %d", ErrMalformed, n)
	}
	if f.Price <= 0 || math.IsNaN(f.Price) || math.IsInf(f.Price, 0) {
		return fmt.Errorf("%w: price %v", ErrMalformed, f.Price)
	}
	if !catalog.IsCategory(f.Category) {
		return fmt.Errorf("%w: category %q", ErrMalformed, f.Category)
	}
	if len(f.Images) > MaxImages {
		return fmt.Errorf("%w: %d images", ErrMalformed, len(f.Images))
	}
	if f.Status != "" && f.Status != catalog.StatusActive && f.Status != catalog.StatusSold {
		return fmt.Errorf("%w: status %q", ErrMalformed, f.Status)
	}
	return nil
}

// BrowseParams selects one page of the cross-profile listing collection.
type BrowseParams struct {
	// ViewerID is excluded from the results.
	ViewerID string
	Offset   int
	Limit    int
}

// Page is one page of browse results. Total counts every listing not owned by the viewer.
type Page struct {
	Listings []*Listing
	Total    int
}

// Service defines listing operations. Every list is ordered newest first.
type Service interface {
	ListByOwner(ctx context.Context, profileID string) ([]*Listing, error)
	Browse(ctx context.Context, params BrowseParams) (*Page, error)
	Get(ctx context.Context, id string) (*Listing, error)
	Create(ctx context.Context, profileID string, fields Fields) (*Listing, error)
	Update(ctx context.Context, profileID, id string, fields Fields) (*Listing, error)
	Delete(ctx context.Context, profileID, id string) error
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "internal_error"
	}
}

func imagesOrNil(images []string) []string {
	if len(images) == 0 {
		return nil
	}
	return append([]string(nil), images...)
}
