package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/janisto/campus-market/internal/market/catalog"
	applog "github.com/janisto/campus-market/internal/platform/logging"
)

const listingsCollection = "listings"

// firestoreListing maps to Firestore document structure.
type firestoreListing struct {
	ProfileID   string    `firestore:"profile_id"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Price       float64   `firestore:"price"`
	Category    string    `firestore:"category"`
	Images      []string  `firestore:"images"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func (fl firestoreListing) toListing(id string) (*Listing, error) {
	f := Fields{
		Title:       fl.Title,
		Description: fl.Description,
		Price:       fl.Price,
		Category:    fl.Category,
		Images:      fl.Images,
		Status:      fl.Status,
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", id, err)
	}
	if fl.ProfileID == "" {
		return nil, fmt.Errorf("listing %s: %w: no owner", id, ErrMalformed)
	}
	return &Listing{
		ID:          id,
		ProfileID:   fl.ProfileID,
		Title:       fl.Title,
		Description: fl.Description,
		Price:       fl.Price,
		Category:    fl.Category,
		Images:      fl.Images,
		Status:      fl.Status,
		CreatedAt:   fl.CreatedAt,
		UpdatedAt:   fl.UpdatedAt,
	}, nil
}

// FirestoreStore implements Service using Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) collection() *firestore.CollectionRef {
	return s.client.Collection(listingsCollection)
}

// scan decodes documents from it until visit returns false, skipping documents that
// fail validation.
func scan(ctx context.Context, it *firestore.DocumentIterator, visit func(*Listing) bool) error {
	defer it.Stop()
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		var fl firestoreListing
		if err := doc.DataTo(&fl); err != nil {
			applog.LogWarn(ctx, "skipping undecodable listing", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		l, err := fl.toListing(doc.Ref.ID)
		if err != nil {
			applog.LogWarn(ctx, "skipping malformed listing", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		if !visit(l) {
			return nil
		}
	}
}

// ListByOwner returns the owner's listings, newest first.
func (s *FirestoreStore) ListByOwner(ctx context.Context, profileID string) ([]*Listing, error) {
	it := s.collection().
		Where("profile_id", "==", profileID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	var listings []*Listing
	if err := scan(ctx, it, func(l *Listing) bool {
		listings = append(listings, l)
		return true
	}); err != nil {
		return nil, err
	}
	return listings, nil
}

// Browse returns one page of other profiles' listings, newest first.
//
// Firestore cannot combine a not-equal filter on profile_id with ordering on created_at,
// so the viewer's documents are skipped while scanning and the total is derived from two
// equality counts.
func (s *FirestoreStore) Browse(ctx context.Context, params BrowseParams) (*Page, error) {
	all, err := s.count(ctx, s.collection().Query)
	if err != nil {
		return nil, err
	}
	own := 0
	if params.ViewerID != "" {
		own, err = s.count(ctx, s.collection().Where("profile_id", "==", params.ViewerID))
		if err != nil {
			return nil, err
		}
	}

	skipped := 0
	page := make([]*Listing, 0, max(params.Limit, 0))
	it := s.collection().OrderBy("created_at", firestore.Desc).Documents(ctx)
	err = scan(ctx, it, func(l *Listing) bool {
		if len(page) >= params.Limit {
			return false
		}
		if l.ProfileID == params.ViewerID {
			return true
		}
		if skipped < params.Offset {
			skipped++
			return true
		}
		page = append(page, l)
		return len(page) < params.Limit
	})
	if err != nil {
		return nil, err
	}
	return &Page{Listings: page, Total: max(all-own, 0)}, nil
}

func (s *FirestoreStore) count(ctx context.Context, q firestore.Query) (int, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", res["all"])
	}
	return int(v.GetIntegerValue()), nil
}

// Get retrieves a listing by ID.
func (s *FirestoreStore) Get(ctx context.Context, id string) (*Listing, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var fl firestoreListing
	if err := doc.DataTo(&fl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fl.toListing(id)
}

// Create stores a new ACTIVE listing owned by profileID.
func (s *FirestoreStore) Create(ctx context.Context, profileID string, fields Fields) (*Listing, error) {
	fields.Status = catalog.StatusActive
	if err := fields.Validate(); err != nil {
		applog.LogAuditEvent(ctx, "create", profileID, "listing", "", applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	docRef := s.collection().NewDoc()
	now := time.Now().UTC()
	fl := firestoreListing{
		ProfileID:   profileID,
		Title:       fields.Title,
		Description: fields.Description,
		Price:       fields.Price,
		Category:    fields.Category,
		Images:      imagesOrNil(fields.Images),
		Status:      fields.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := docRef.Create(ctx, fl); err != nil {
		applog.LogAuditEvent(ctx, "create", profileID, "listing", docRef.ID, applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	applog.LogAuditEvent(ctx, "create", profileID, "listing", docRef.ID, applog.ResultSuccess, nil)
	return fl.toListing(docRef.ID)
}

// Update replaces the editable fields of a listing owned by profileID.
func (s *FirestoreStore) Update(ctx context.Context, profileID, id string, fields Fields) (*Listing, error) {
	docRef := s.collection().Doc(id)

	var result *Listing
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		fl, err := s.ownedInTx(tx, docRef, profileID)
		if err != nil {
			return err
		}

		fl.Title = fields.Title
		fl.Description = fields.Description
		fl.Price = fields.Price
		fl.Category = fields.Category
		fl.Images = imagesOrNil(fields.Images)
		if fields.Status != "" {
			fl.Status = fields.Status
		}
		fl.UpdatedAt = time.Now().UTC()

		l, err := fl.toListing(id)
		if err != nil {
			return err
		}
		if err := tx.Set(docRef, fl); err != nil {
			return err
		}
		result = l
		return nil
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "update", profileID, "listing", id, applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	applog.LogAuditEvent(ctx, "update", profileID, "listing", id, applog.ResultSuccess, nil)
	return result, nil
}

// Delete removes a listing owned by profileID.
func (s *FirestoreStore) Delete(ctx context.Context, profileID, id string) error {
	docRef := s.collection().Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := s.ownedInTx(tx, docRef, profileID); err != nil {
			return err
		}
		return tx.Delete(docRef)
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "delete", profileID, "listing", id, applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return err
	}

	applog.LogAuditEvent(ctx, "delete", profileID, "listing", id, applog.ResultSuccess, nil)
	return nil
}

func (s *FirestoreStore) ownedInTx(tx *firestore.Transaction, docRef *firestore.DocumentRef, profileID string) (*firestoreListing, error) {
	doc, err := tx.Get(docRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var fl firestoreListing
	if err := doc.DataTo(&fl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fl.ProfileID != profileID {
		return nil, ErrForbidden
	}
	return &fl, nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
