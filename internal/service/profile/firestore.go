package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

const profilesCollection = "profiles"

// firestoreProfile maps to Firestore document structure.
type firestoreProfile struct {
	Email            string    `firestore:"email"`
	FullName         string    `firestore:"full_name"`
	PhoneNumber      string    `firestore:"phone_number"`
	Role             string    `firestore:"role"`
	Department       string    `firestore:"department,omitempty"`
	NonTeachingStaff bool      `firestore:"is_non_teaching_staff"`
	Bio              string    `firestore:"bio,omitempty"`
	Skills           []string  `firestore:"skills"`
	MatricNumber     string    `firestore:"matric_number,omitempty"`
	AvatarURL        string    `firestore:"avatar_url,omitempty"`
	CreatedAt        time.Time `firestore:"created_at"`
	UpdatedAt        time.Time `firestore:"updated_at"`
}

func toDocument(p *Profile) firestoreProfile {
	return firestoreProfile{
		Email:            p.Email,
		FullName:         p.FullName,
		PhoneNumber:      p.PhoneNumber,
		Role:             p.Role,
		Department:       p.Department,
		NonTeachingStaff: p.NonTeachingStaff,
		Bio:              p.Bio,
		Skills:           p.Skills,
		MatricNumber:     p.MatricNumber,
		AvatarURL:        p.AvatarURL,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (fp firestoreProfile) toProfile(userID string) (*Profile, error) {
	p := &Profile{
		ID:               userID,
		Email:            fp.Email,
		FullName:         fp.FullName,
		PhoneNumber:      fp.PhoneNumber,
		Role:             fp.Role,
		Department:       fp.Department,
		NonTeachingStaff: fp.NonTeachingStaff,
		Bio:              fp.Bio,
		Skills:           fp.Skills,
		MatricNumber:     fp.MatricNumber,
		AvatarURL:        fp.AvatarURL,
		CreatedAt:        fp.CreatedAt,
		UpdatedAt:        fp.UpdatedAt,
	}
	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}
	return p, nil
}

// FirestoreStore implements Service using Firestore with transactions.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) readInTx(tx *firestore.Transaction, docRef *firestore.DocumentRef) (*Profile, error) {
	doc, err := tx.Get(docRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var fp firestoreProfile
	if err := doc.DataTo(&fp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fp.toProfile(docRef.ID)
}

// Create creates a new profile using a transaction to prevent duplicates.
func (s *FirestoreStore) Create(ctx context.Context, userID string, params CreateParams) (*Profile, error) {
	docRef := s.client.Collection(profilesCollection).Doc(userID)
	now := time.Now().UTC()

	p := fromCreate(userID, params)
	normalize(p)
	p.CreatedAt = now
	p.UpdatedAt = now

	err := Validate(p)
	if err == nil {
		err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			_, err := s.readInTx(tx, docRef)
			if err == nil {
				return ErrAlreadyExists
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			return tx.Set(docRef, toDocument(p))
		})
	}
	if err != nil {
		applog.LogAuditEvent(ctx, "create", userID, "profile", userID, applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	applog.LogAuditEvent(ctx, "create", userID, "profile", userID, applog.ResultSuccess, nil)

	return p, nil
}

// Get retrieves a profile by user ID.
func (s *FirestoreStore) Get(ctx context.Context, userID string) (*Profile, error) {
	doc, err := s.client.Collection(profilesCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestoreProfile
	if err := doc.DataTo(&fp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fp.toProfile(userID)
}

// Update updates a profile using a transaction for atomicity.
func (s *FirestoreStore) Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error) {
	docRef := s.client.Collection(profilesCollection).Doc(userID)

	var result *Profile

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		p, err := s.readInTx(tx, docRef)
		if err != nil {
			return err
		}

		params.apply(p)
		normalize(p)
		p.UpdatedAt = time.Now().UTC()
		if err := Validate(p); err != nil {
			return err
		}

		if err := tx.Set(docRef, toDocument(p)); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "update", userID, "profile", userID, applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	applog.LogAuditEvent(ctx, "update", userID, "profile", userID, applog.ResultSuccess, nil)

	return result, nil
}

// Delete removes a profile using a transaction to ensure it exists.
func (s *FirestoreStore) Delete(ctx context.Context, userID string) error {
	docRef := s.client.Collection(profilesCollection).Doc(userID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		return tx.Delete(docRef)
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "delete", userID, "profile", userID, applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return err
	}

	applog.LogAuditEvent(ctx, "delete", userID, "profile", userID, applog.ResultSuccess, nil)

	return nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
