// Package market is the marketplace data-sync layer used by the HTTP views. It reads
// through the query cache and writes through the mutation coordinator, so every write
// invalidates exactly the reads it affects.
package market

import (
	"context"
	"errors"

	"github.com/janisto/campus-market/internal/market/browse"
	"github.com/janisto/campus-market/internal/market/cache"
	"github.com/janisto/campus-market/internal/market/favorites"
	"github.com/janisto/campus-market/internal/market/form"
	"github.com/janisto/campus-market/internal/market/marketerr"
	"github.com/janisto/campus-market/internal/market/mutation"
	"github.com/janisto/campus-market/internal/platform/pagination"
	"github.com/janisto/campus-market/internal/service/favorite"
	"github.com/janisto/campus-market/internal/service/listing"
	"github.com/janisto/campus-market/internal/service/profile"
)

// Default bucket names.
const (
	DefaultAvatarBucket  = "avatars"
	DefaultListingBucket = "listing_img"
)

// Buckets names the object namespaces.
type Buckets struct {
	Avatars  string
	Listings string
}

// Marketplace wires the cache, the coordinator and the backend services.
type Marketplace struct {
	profiles  profile.Service
	listings  listing.Service
	favorites favorite.Service
	store     *cache.Store
	coord     *mutation.Coordinator
	buckets   Buckets
	pageSize  int
}

// Option configures a Marketplace.
type Option func(*Marketplace)

// WithBuckets overrides the bucket names. Empty names keep the defaults.
func WithBuckets(b Buckets) Option {
	return func(m *Marketplace) {
		if b.Avatars != "" {
			m.buckets.Avatars = b.Avatars
		}
		if b.Listings != "" {
			m.buckets.Listings = b.Listings
		}
	}
}

// WithPageSize sets the browse page size.
func WithPageSize(n int) Option {
	return func(m *Marketplace) {
		_, m.pageSize = pagination.Params{PageSize: n}.Normalize()
	}
}

// New returns a Marketplace.
func New(
	store *cache.Store,
	objects mutation.ObjectStore,
	profiles profile.Service,
	listings listing.Service,
	favs favorite.Service,
	opts ...Option,
) *Marketplace {
	m := &Marketplace{
		profiles:  profiles,
		listings:  listings,
		favorites: favs,
		store:     store,
		coord:     mutation.New(store, objects),
		buckets:   Buckets{Avatars: DefaultAvatarBucket, Listings: DefaultListingBucket},
		pageSize:  pagination.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the query cache.
func (m *Marketplace) Store() *cache.Store {
	return m.store
}

// Buckets returns the configured bucket names.
func (m *Marketplace) Buckets() Buckets {
	return m.buckets
}

// NewBrowseState returns a browse state with the configured page size.
func (m *Marketplace) NewBrowseState() *browse.State {
	return browse.NewState(m.pageSize)
}

func profileKey(uid string) cache.Key {
	return cache.NewKey(cache.ResourceProfile, uid)
}

func listingsKey(owner string) cache.Key {
	return cache.NewKey(cache.ResourceListings, owner)
}

// allListings matches every browse page of every viewer.
var allListings = cache.NewKey(cache.ResourceAllListings)

// classify converts backend sentinels to marketplace error kinds.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, listing.ErrNotFound):
		return marketerr.NotFound(op, err)
	case errors.Is(err, listing.ErrForbidden):
		return marketerr.Forbidden(op, err)
	case errors.Is(err, profile.ErrAlreadyExists):
		return marketerr.Validation(op, map[string]string{"profile": "Profile already exists"})
	case errors.Is(err, profile.ErrMalformed), errors.Is(err, listing.ErrMalformed), errors.Is(err, favorite.ErrMalformed):
		return marketerr.Validation(op, map[string]string{"form": "Please check the form and try again"})
	}
	return err
}

func validate(op string, errs map[string]string) error {
	if len(errs) == 0 {
		return nil
	}
	return marketerr.Validation(op, errs)
}

// Profile returns the profile of uid. A missing profile is a not_found error, which
// signals profile setup rather than a failure.
func (m *Marketplace) Profile(ctx context.Context, uid string) (*profile.Profile, error) {
	res, err := cache.Read(ctx, m.store, profileKey(uid), func(ctx context.Context) (*profile.Profile, error) {
		p, err := m.profiles.Get(ctx, uid)
		return p, classify("get_profile", err)
	})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// SetupProfile creates the profile of uid from a setup form draft.
func (m *Marketplace) SetupProfile(ctx context.Context, uid, email string, d form.ProfileDraft) (*profile.Profile, error) {
	const op = "create_profile"
	if err := validate(op, form.ProfileRules(d)); err != nil {
		return nil, err
	}
	return mutation.Run(ctx, m.coord, mutation.Mutation[*profile.Profile]{
		Name:         op,
		Actor:        uid,
		ResourceType: "profile",
		ResourceID:   uid,
		Write: func(ctx context.Context, _ []string) (*profile.Profile, error) {
			p, err := m.profiles.Create(ctx, uid, d.CreateParams(email))
			return p, classify(op, err)
		},
		Invalidate: []cache.Key{profileKey(uid)},
	})
}

// UpdateProfile replaces the editable fields of uid's profile.
func (m *Marketplace) UpdateProfile(ctx context.Context, uid string, d form.ProfileDraft) (*profile.Profile, error) {
	const op = "update_profile"
	if err := validate(op, form.ProfileRules(d)); err != nil {
		return nil, err
	}
	return mutation.Run(ctx, m.coord, mutation.Mutation[*profile.Profile]{
		Name:         op,
		Actor:        uid,
		ResourceType: "profile",
		ResourceID:   uid,
		Write: func(ctx context.Context, _ []string) (*profile.Profile, error) {
			p, err := m.profiles.Update(ctx, uid, d.UpdateParams())
			return p, classify(op, err)
		},
		Invalidate: []cache.Key{profileKey(uid)},
	})
}

// UploadAvatar stores file as uid's avatar and discards the previous one. file is released
// on return.
func (m *Marketplace) UploadAvatar(ctx context.Context, uid string, file *form.Attachment) (*profile.Profile, error) {
	const op = "upload_avatar"
	defer file.Release()
	if msg := form.CheckImage(file); msg != "" {
		return nil, marketerr.Validation(op, map[string]string{"avatar": msg})
	}

	var previous string
	return mutation.Run(ctx, m.coord, mutation.Mutation[*profile.Profile]{
		Name:         op,
		Actor:        uid,
		ResourceType: "profile",
		ResourceID:   uid,
		Uploads:      []mutation.Upload{{Bucket: m.buckets.Avatars, File: file}},
		Write: func(ctx context.Context, refs []string) (*profile.Profile, error) {
			current, err := m.profiles.Get(ctx, uid)
			if err != nil {
				return nil, classify(op, err)
			}
			previous = current.AvatarURL
			p, err := m.profiles.Update(ctx, uid, profile.UpdateParams{AvatarURL: &refs[0]})
			return p, classify(op, err)
		},
		Invalidate: []cache.Key{profileKey(uid)},
		FollowUps: []func(*profile.Profile){
			func(*profile.Profile) { m.discard(ctx, op, m.buckets.Avatars, previous) },
		},
	})
}

// RemoveAvatar clears uid's avatar and discards the stored object.
func (m *Marketplace) RemoveAvatar(ctx context.Context, uid string) (*profile.Profile, error) {
	const op = "remove_avatar"
	var previous string
	none := ""
	return mutation.Run(ctx, m.coord, mutation.Mutation[*profile.Profile]{
		Name:         op,
		Actor:        uid,
		ResourceType: "profile",
		ResourceID:   uid,
		Write: func(ctx context.Context, _ []string) (*profile.Profile, error) {
			current, err := m.profiles.Get(ctx, uid)
			if err != nil {
				return nil, classify(op, err)
			}
			previous = current.AvatarURL
			p, err := m.profiles.Update(ctx, uid, profile.UpdateParams{AvatarURL: &none})
			return p, classify(op, err)
		},
		Invalidate: []cache.Key{profileKey(uid)},
		FollowUps: []func(*profile.Profile){
			func(*profile.Profile) { m.discard(ctx, op, m.buckets.Avatars, previous) },
		},
	})
}

// DeleteProfile deletes uid's profile and discards its avatar. Listings are kept.
func (m *Marketplace) DeleteProfile(ctx context.Context, uid string) error {
	const op = "delete_profile"
	_, err := mutation.Run(ctx, m.coord, mutation.Mutation[*profile.Profile]{
		Name:         op,
		Actor:        uid,
		ResourceType: "profile",
		ResourceID:   uid,
		Write: func(ctx context.Context, _ []string) (*profile.Profile, error) {
			p, err := m.profiles.Get(ctx, uid)
			if err != nil {
				return nil, classify(op, err)
			}
			if err := m.profiles.Delete(ctx, uid); err != nil {
				return nil, classify(op, err)
			}
			return p, nil
		},
		Invalidate: []cache.Key{profileKey(uid)},
		FollowUps: []func(*profile.Profile){
			func(p *profile.Profile) { m.discard(ctx, op, m.buckets.Avatars, p.AvatarURL) },
		},
	})
	return err
}

func (m *Marketplace) discard(ctx context.Context, op, bucket string, refs ...string) {
	var keep []string
	for _, ref := range refs {
		if ref != "" {
			keep = append(keep, ref)
		}
	}
	if len(keep) > 0 {
		m.coord.Discard(ctx, op, bucket, keep)
	}
}

// MyListings returns the listings owned by uid, newest first.
func (m *Marketplace) MyListings(ctx context.Context, uid string) ([]*listing.Listing, error) {
	res, err := cache.Read(ctx, m.store, listingsKey(uid), func(ctx context.Context) ([]*listing.Listing, error) {
		ls, err := m.listings.ListByOwner(ctx, uid)
		return ls, classify("list_listings", err)
	})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Listing returns one listing.
func (m *Marketplace) Listing(ctx context.Context, id string) (*listing.Listing, error) {
	l, err := m.listings.Get(ctx, id)
	if err != nil {
		return nil, marketerr.As(classify("get_listing", err), func(err error) *marketerr.Error {
			return marketerr.Fetch("get_listing", err)
		})
	}
	return l, nil
}

// Browse returns the page of other profiles' listings that state selects, filtered for
// display.
func (m *Marketplace) Browse(ctx context.Context, viewer string, state *browse.State) (browse.Page, error) {
	params := state.Params()
	res, err := cache.Read(ctx, m.store, state.Key(viewer), func(ctx context.Context) (*listing.Page, error) {
		p, err := m.listings.Browse(ctx, listing.BrowseParams{
			ViewerID: viewer,
			Offset:   params.Offset(),
			Limit:    state.PageSize(),
		})
		return p, classify("browse_listings", err)
	})
	if err != nil {
		return browse.Page{}, err
	}
	return browse.NewPage(state, res.Value, viewer), nil
}

func listingUploads(bucket string, files []*form.Attachment) []mutation.Upload {
	ups := make([]mutation.Upload, 0, len(files))
	for _, f := range files {
		ups = append(ups, mutation.Upload{Bucket: bucket, File: f})
	}
	return ups
}

// CreateListing creates a listing owned by uid from a create form draft.
func (m *Marketplace) CreateListing(ctx context.Context, uid string, d form.ListingDraft) (*listing.Listing, error) {
	const op = "create_listing"
	if err := validate(op, form.ListingRules(d)); err != nil {
		return nil, err
	}
	return mutation.Run(ctx, m.coord, mutation.Mutation[*listing.Listing]{
		Name:         op,
		Actor:        uid,
		ResourceType: "listing",
		Uploads:      listingUploads(m.buckets.Listings, d.Images),
		Write: func(ctx context.Context, refs []string) (*listing.Listing, error) {
			fields, err := d.Fields(refs)
			if err != nil {
				return nil, classify(op, err)
			}
			l, err := m.listings.Create(ctx, uid, fields)
			return l, classify(op, err)
		},
		Invalidate: []cache.Key{listingsKey(uid), allListings},
	})
}

// UpdateListing saves an edit form draft. Kept images stay first and new uploads follow;
// dropped images are discarded after the write.
func (m *Marketplace) UpdateListing(ctx context.Context, uid, id string, d form.ListingDraft) (*listing.Listing, error) {
	const op = "update_listing"
	if err := validate(op, form.ListingRules(d)); err != nil {
		return nil, err
	}
	return mutation.Run(ctx, m.coord, mutation.Mutation[*listing.Listing]{
		Name:         op,
		Actor:        uid,
		ResourceType: "listing",
		ResourceID:   id,
		Uploads:      listingUploads(m.buckets.Listings, d.Images),
		Write: func(ctx context.Context, refs []string) (*listing.Listing, error) {
			images := append(append([]string(nil), d.Existing...), refs...)
			fields, err := d.Fields(images)
			if err != nil {
				return nil, classify(op, err)
			}
			l, err := m.listings.Update(ctx, uid, id, fields)
			return l, classify(op, err)
		},
		Invalidate: []cache.Key{listingsKey(uid), allListings},
		FollowUps: []func(*listing.Listing){
			func(*listing.Listing) { m.discard(ctx, op, m.buckets.Listings, d.Removed...) },
		},
	})
}

// DeleteListing deletes listing id owned by uid and discards its images. When sel shows
// the listing, it is closed.
func (m *Marketplace) DeleteListing(ctx context.Context, uid, id string, sel *browse.Selection) error {
	const op = "delete_listing"
	_, err := mutation.Run(ctx, m.coord, mutation.Mutation[*listing.Listing]{
		Name:         op,
		Actor:        uid,
		ResourceType: "listing",
		ResourceID:   id,
		Write: func(ctx context.Context, _ []string) (*listing.Listing, error) {
			l, err := m.listings.Get(ctx, id)
			if err != nil {
				return nil, classify(op, err)
			}
			if err := m.listings.Delete(ctx, uid, id); err != nil {
				return nil, classify(op, err)
			}
			return l, nil
		},
		Invalidate: []cache.Key{listingsKey(uid), allListings},
		FollowUps: []func(*listing.Listing){
			func(*listing.Listing) {
				if sel != nil {
					sel.CloseIf(id)
				}
			},
			func(l *listing.Listing) { m.discard(ctx, op, m.buckets.Listings, l.Images...) },
		},
	})
	return err
}

// Favorites returns the favorites set of profileID.
func (m *Marketplace) Favorites(profileID string) *favorites.Set {
	return favorites.New(m.coord, m.favorites, profileID)
}

// SignOut drops every cached read scoped to uid and returns how many were dropped.
func (m *Marketplace) SignOut(uid string) int {
	return m.store.ClearScope(uid)
}
