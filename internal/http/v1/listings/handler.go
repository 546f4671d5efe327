package listings

import (
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/campus-market/internal/http/v1/problem"
	"github.com/janisto/campus-market/internal/http/v1/upload"
	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/market/form"
	"github.com/janisto/campus-market/internal/market/marketerr"
	"github.com/janisto/campus-market/internal/platform/auth"
	applog "github.com/janisto/campus-market/internal/platform/logging"
	"github.com/janisto/campus-market/internal/platform/timeutil"
	"github.com/janisto/campus-market/internal/service/listing"
)

// Register registers the seller's listing endpoints.
func Register(api huma.API, mp *market.Marketplace, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "list-my-listings",
		Method:      http.MethodGet,
		Path:        "/listings",
		Summary:     "List my listings",
		Description: "Returns every listing owned by the authenticated user, newest first.",
		Tags:        []string{"Listings"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *ListingsListInput) (*ListingsListOutput, error) {
		user := auth.UserFromContext(ctx)

		ls, err := mp.MyListings(ctx, user.UID)
		if err != nil {
			return nil, problem.From(err)
		}
		out := &ListingsListOutput{Body: ListData{Listings: make([]Listing, 0, len(ls)), Count: len(ls)}}
		for _, l := range ls {
			out.Body.Listings = append(out.Body.Listings, ToHTTPListing(l))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/listings/{id}",
		Summary:     "Get a listing",
		Tags:        []string{"Listings"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *ListingIDInput) (*ListingOutput, error) {
		l, err := mp.Listing(ctx, input.ID)
		if err != nil {
			return nil, problem.From(err)
		}
		return &ListingOutput{Body: ToHTTPListing(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-listing",
		Method:        http.MethodPost,
		Path:          "/listings",
		Summary:       "Create a listing",
		Description:   "Creates an ACTIVE listing. Up to 3 images are uploaded before the listing is saved.",
		Tags:          []string{"Listings"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  upload.MaxBodyBytes,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *ListingCreateInput) (*ListingCreateOutput, error) {
		user := auth.UserFromContext(ctx)

		m := form.NewListingForm(form.WithLogger(applog.LoggerFromContext(ctx)))
		defer func() { _ = m.Cancel() }()

		b := &input.Body
		err := m.Edit("title", func(d *form.ListingDraft) {
			d.Title = b.Title
			d.Description = b.Description
			d.Price = formatPrice(b.Price)
			d.Category = b.Category
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("internal error")
		}
		if err := addImages(m, b.Images); err != nil {
			return nil, err
		}

		var created *listing.Listing
		err = m.Submit(ctx, func(ctx context.Context, d form.ListingDraft) error {
			l, err := mp.CreateListing(ctx, user.UID, d)
			created = l
			return err
		})
		if err != nil {
			return nil, problem.From(err)
		}
		return &ListingCreateOutput{
			Location: prefix + "/listings/" + created.ID,
			Body:     ToHTTPListing(created),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "update-listing",
		Method:       http.MethodPatch,
		Path:         "/listings/{id}",
		Summary:      "Update a listing",
		Description:  "Edits an owned listing. Kept images stay first and new ones follow, 5 images at most.",
		Tags:         []string{"Listings"},
		MaxBodyBytes: upload.MaxBodyBytes,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *ListingUpdateInput) (*ListingOutput, error) {
		user := auth.UserFromContext(ctx)

		current, err := mp.Listing(ctx, input.ID)
		if err != nil {
			return nil, problem.From(err)
		}
		if current.ProfileID != user.UID {
			return nil, problem.From(marketerr.Forbidden("update_listing", listing.ErrForbidden))
		}

		m := form.EditListingForm(current, form.WithLogger(applog.LoggerFromContext(ctx)))
		defer func() { _ = m.Cancel() }()

		if err := applyEdits(m, input); err != nil {
			return nil, err
		}
		if err := addImages(m, input.Body.AddImages); err != nil {
			return nil, err
		}

		var updated *listing.Listing
		err = m.Submit(ctx, func(ctx context.Context, d form.ListingDraft) error {
			l, err := mp.UpdateListing(ctx, user.UID, input.ID, d)
			updated = l
			return err
		})
		if err != nil {
			return nil, problem.From(err)
		}
		return &ListingOutput{Body: ToHTTPListing(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-listing",
		Method:        http.MethodDelete,
		Path:          "/listings/{id}",
		Summary:       "Delete a listing",
		Description:   "Deletes an owned listing and its stored images.",
		Tags:          []string{"Listings"},
		DefaultStatus: http.StatusNoContent,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *ListingIDInput) (*struct{}, error) {
		user := auth.UserFromContext(ctx)

		if err := mp.DeleteListing(ctx, user.UID, input.ID, nil); err != nil {
			return nil, problem.From(err)
		}
		return nil, nil
	})
}

func applyEdits(m *form.Machine[form.ListingDraft], input *ListingUpdateInput) error {
	b := &input.Body
	existing := m.Draft().Existing
	for _, ref := range b.RemoveImages {
		if !slices.Contains(existing, ref) {
			return problem.Validation(map[string]string{"removeImages": "Image does not belong to this listing"})
		}
	}

	err := m.Edit("title", func(d *form.ListingDraft) {
		if b.Title != nil {
			d.Title = *b.Title
		}
		if b.Description != nil {
			d.Description = *b.Description
		}
		if b.Price != nil {
			d.Price = formatPrice(b.Price)
		}
		if b.Category != nil {
			d.Category = *b.Category
		}
		for _, ref := range b.RemoveImages {
			d.RemoveExisting(ref)
		}
	})
	if err != nil {
		return huma.Error500InternalServerError("internal error")
	}
	return nil
}

// addImages stages the uploaded files. Any rejected file fails the request with the
// form's images message.
func addImages(m *form.Machine[form.ListingDraft], images []upload.Image) error {
	if len(images) == 0 {
		return nil
	}
	rejected, err := form.AddListingImages(m, upload.Attachments(images)...)
	if err != nil {
		return huma.Error500InternalServerError("internal error")
	}
	if len(rejected) > 0 {
		return problem.Validation(m.Errors())
	}
	return nil
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// ToHTTPListing converts a stored listing to its response body.
func ToHTTPListing(l *listing.Listing) Listing {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return Listing{
		ID:          l.ID,
		ProfileID:   l.ProfileID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Images:      images,
		Status:      l.Status,
		CreatedAt:   timeutil.Time{Time: l.CreatedAt},
		UpdatedAt:   timeutil.Time{Time: l.UpdatedAt},
	}
}
