package form

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/janisto/campus-market/internal/market/catalog"
	"github.com/janisto/campus-market/internal/service/listing"
)

// Image limits per listing form.
const (
	MaxCreateImages = 3
	MaxEditImages   = listing.MaxImages
)

// ListingDraft is the listing form input as typed.
type ListingDraft struct {
	Title       string
	Description string
	Price       string
	Category    string
	// Existing holds kept image references of the listing being edited.
	Existing []string
	// Removed holds dropped image references, discarded after a successful save.
	Removed []string
	// Images are new attachments, uploaded on submit after Existing.
	Images []*Attachment

	maxImages int
}

// Clone copies the slices so snapshots do not share them with later edits.
func (d ListingDraft) Clone() ListingDraft {
	d.Existing = slices.Clone(d.Existing)
	d.Removed = slices.Clone(d.Removed)
	d.Images = slices.Clone(d.Images)
	return d
}

// Release releases the staged attachments.
func (d ListingDraft) Release() {
	ReleaseAll(d.Images)
}

// MaxImages returns the image limit: 3 on create, 5 on edit.
func (d ListingDraft) MaxImages() int {
	if d.maxImages == 0 {
		return MaxCreateImages
	}
	return d.maxImages
}

func (d ListingDraft) imageCount() int {
	return len(d.Existing) + len(d.Images)
}

// AddImages attaches files and returns one message per rejected file. Files that would
// exceed the limit are all rejected; otherwise each invalid file is rejected on its own and
// the rest are kept. Rejected attachments are released.
func (d *ListingDraft) AddImages(files ...*Attachment) []string {
	if d.imageCount()+len(files) > d.MaxImages() {
		ReleaseAll(files)
		return []string{d.limitMessage()}
	}
	var rejected []string
	for _, f := range files {
		if msg := CheckImage(f); msg != "" {
			f.Release()
			rejected = append(rejected, msg)
			continue
		}
		d.Images = append(d.Images, f)
	}
	return rejected
}

func (d ListingDraft) limitMessage() string {
	limit := d.MaxImages()
	if limit == MaxCreateImages {
		return fmt.Sprintf("Maximum %d images allowed", limit)
	}
	allowed := limit - d.imageCount()
	if allowed <= 0 {
		return fmt.Sprintf("Maximum %d images allowed. Remove some images first.", limit)
	}
	return fmt.Sprintf("You can only add %d more image(s). Maximum %d images allowed.", allowed, limit)
}

// RemoveImage drops the new attachment at i and releases it.
func (d *ListingDraft) RemoveImage(i int) {
	if i < 0 || i >= len(d.Images) {
		return
	}
	d.Images[i].Release()
	d.Images = slices.Delete(d.Images, i, i+1)
}

// RemoveExisting drops a kept image reference.
func (d *ListingDraft) RemoveExisting(ref string) {
	if i := slices.Index(d.Existing, ref); i >= 0 {
		d.Existing = slices.Delete(d.Existing, i, i+1)
		d.Removed = append(d.Removed, ref)
	}
}

// PriceValue parses the typed price.
func (d ListingDraft) PriceValue() (float64, bool) {
	p, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64)
	if err != nil || p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}

// Fields converts a valid draft to listing fields with images as the stored references.
func (d ListingDraft) Fields(images []string) (listing.Fields, error) {
	price, _ := d.PriceValue()
	return listing.NewFields(d.Title, d.Description, price, d.Category, images)
}

// ListingRules validates a listing draft. Lengths count the trimmed text, the form that is
// stored.
func ListingRules(d ListingDraft) map[string]string {
	errs := make(map[string]string)

	title := strings.TrimSpace(d.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		errs["title"] = "Title is required"
	case n < listing.MinTitleLength:
		errs["title"] = fmt.Sprintf("Title must be at least %d characters", listing.MinTitleLength)
	case n > listing.MaxTitleLength:
		errs["title"] = fmt.Sprintf("Title must be at most %d characters", listing.MaxTitleLength)
	}

	desc := strings.TrimSpace(d.Description)
	switch n := utf8.RuneCountInString(desc); {
	case n == 0:
		errs["description"] = "Description is required"
	case n < listing.MinDescriptionLength:
		errs["description"] = fmt.Sprintf("Description must be at least %d characters", listing.MinDescriptionLength)
	case n > listing.MaxDescriptionLength:
		errs["description"] = fmt.Sprintf("Description must be at most %d characters", listing.MaxDescriptionLength)
	}

	if strings.TrimSpace(d.Price) == "" {
		errs["price"] = "Price is required"
	} else if _, ok := d.PriceValue(); !ok {
		errs["price"] = "Please enter a valid price"
	}

	if d.Category == "" {
		errs["category"] = "Category is required"
	} else if !catalog.IsCategory(d.Category) {
		errs["category"] = "Please select a valid category"
	}

	if d.imageCount() > d.MaxImages() {
		errs["images"] = fmt.Sprintf("Maximum %d images allowed", d.MaxImages())
	}
	for _, a := range d.Images {
		if msg := CheckImage(a); msg != "" {
			errs["images"] = msg
			break
		}
	}
	return errs
}

// NewListingForm returns the create form. It resets after a successful submit.
func NewListingForm(opts ...Option) *Machine[ListingDraft] {
	opts = append([]Option{ResetOnSuccess()}, opts...)
	return NewMachine("create_listing", ListingDraft{maxImages: MaxCreateImages}, ListingRules, opts...)
}

// EditListingForm returns the edit form prefilled from l. It closes after a successful
// submit.
func EditListingForm(l *listing.Listing, opts ...Option) *Machine[ListingDraft] {
	draft := ListingDraft{
		Title:       l.Title,
		Description: l.Description,
		Price:       strconv.FormatFloat(l.Price, 'f', -1, 64),
		Category:    l.Category,
		Existing:    slices.Clone(l.Images),
		maxImages:   MaxEditImages,
	}
	opts = append([]Option{CloseOnSuccess()}, opts...)
	return NewMachine("update_listing", draft, ListingRules, opts...)
}

// AddListingImages attaches files through m and records the last rejection as the
// images error.
func AddListingImages(m *Machine[ListingDraft], files ...*Attachment) ([]string, error) {
	var rejected []string
	err := m.Edit("images", func(d *ListingDraft) {
		rejected = d.AddImages(files...)
	})
	if err != nil {
		ReleaseAll(files)
		return nil, err
	}
	if len(rejected) > 0 {
		m.Reject("images", rejected[len(rejected)-1])
	}
	return rejected, nil
}
