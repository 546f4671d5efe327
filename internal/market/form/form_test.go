package form

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/janisto/campus-market/internal/market/catalog"
	"github.com/janisto/campus-market/internal/market/marketerr"
	"github.com/janisto/campus-market/internal/service/listing"
	"github.com/janisto/campus-market/internal/service/profile"
)

func validListing() ListingDraft {
	return ListingDraft{
		Title:       "Calculus Textbook",
		Description: "Thomas Calculus 12th edition, barely used",
		Price:       "1500",
		Category:    "Textbooks & Course Materials",
	}
}

func fill(m *Machine[ListingDraft], d ListingDraft) {
	_ = m.Edit("", func(draft *ListingDraft) {
		draft.Title = d.Title
		draft.Description = d.Description
		draft.Price = d.Price
		draft.Category = d.Category
	})
}

func image(name string, size int, released *atomic.Int32) *Attachment {
	return NewAttachment(name, "image/png", make([]byte, size), func(string) {
		if released != nil {
			released.Add(1)
		}
	})
}

func TestSubmitSuccessTransitions(t *testing.T) {
	var seen []State
	m := NewListingForm(WithObserver(func(_, to State) { seen = append(seen, to) }))
	fill(m, validListing())

	var got ListingDraft
	err := m.Submit(context.Background(), func(_ context.Context, d ListingDraft) error {
		got = d
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []State{Validating, Submitting, Succeeded, Editing}
	if !slices.Equal(seen, want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	if got.Title != "Calculus Textbook" {
		t.Fatalf("submit received %+v", got)
	}
	if d := m.Draft(); d.Title != "" || d.Price != "" {
		t.Fatalf("create form must reset after success, got %+v", d)
	}
}

func TestWithLoggerRecordsTransitions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewListingForm(WithLogger(zap.New(core)))
	fill(m, validListing())

	_ = m.Submit(context.Background(), func(context.Context, ListingDraft) error { return nil })

	entries := logs.FilterMessage("form transition").All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 transitions logged, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["form"] != "create_listing" || fields["from"] != "editing" || fields["to"] != "validating" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestSubmitInvalidSkipsRemoteCall(t *testing.T) {
	m := NewListingForm()
	called := false

	err := m.Submit(context.Background(), func(context.Context, ListingDraft) error {
		called = true
		return nil
	})
	if called {
		t.Fatal("invalid draft must not reach the backend")
	}
	if !errors.Is(err, marketerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := marketerr.FieldsOf(err)
	for _, f := range []string{"title", "description", "price", "category"} {
		if fields[f] == "" {
			t.Errorf("expected %s error in %v", f, fields)
		}
	}
	if m.State() != Editing {
		t.Fatalf("expected Editing, got %s", m.State())
	}
}

func TestEditClearsFieldError(t *testing.T) {
	m := NewListingForm()
	_ = m.Submit(context.Background(), func(context.Context, ListingDraft) error { return nil })

	if err := m.Edit("title", func(d *ListingDraft) { d.Title = "Lamp!" }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	errs := m.Errors()
	if _, ok := errs["title"]; ok {
		t.Fatal("editing a field must clear its error")
	}
	if errs["price"] == "" {
		t.Fatal("other field errors must remain")
	}
}

func TestEditLockedWhileSubmitting(t *testing.T) {
	m := NewListingForm()
	fill(m, validListing())

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.Submit(context.Background(), func(context.Context, ListingDraft) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := m.Edit("title", func(d *ListingDraft) { d.Title = "changed" }); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := m.Submit(context.Background(), func(context.Context, ListingDraft) error { return nil }); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked for a second submit, got %v", err)
	}
	if m.State() != Submitting {
		t.Fatalf("expected Submitting, got %s", m.State())
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	var seen []State
	m := NewListingForm(WithObserver(func(_, to State) { seen = append(seen, to) }))
	fill(m, validListing())
	var released atomic.Int32
	if rejected, _ := AddListingImages(m, image("a.png", 10, &released)); len(rejected) != 0 {
		t.Fatalf("unexpected rejections %v", rejected)
	}

	boom := marketerr.Write("create_listing", errors.New("insert failed"))
	if err := m.Submit(context.Background(), func(context.Context, ListingDraft) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if !slices.Contains(seen, Failed) || m.State() != Editing {
		t.Fatalf("expected Failed then Editing, got %v", seen)
	}
	d := m.Draft()
	if d.Title != "Calculus Textbook" || len(d.Images) != 1 {
		t.Fatalf("draft must survive a failed submit, got %+v", d)
	}
	if released.Load() != 0 {
		t.Fatal("attachments must be kept for retry")
	}
	if !errors.Is(m.Err(), marketerr.ErrWrite) {
		t.Fatalf("expected last error recorded, got %v", m.Err())
	}
}

func TestSuccessReleasesAttachments(t *testing.T) {
	m := NewListingForm()
	fill(m, validListing())
	var released atomic.Int32
	_, _ = AddListingImages(m, image("a.png", 10, &released), image("b.png", 10, &released))

	if err := m.Submit(context.Background(), func(context.Context, ListingDraft) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released.Load() != 2 {
		t.Fatalf("expected both attachments released, got %d", released.Load())
	}
}

func TestEditFormClosesOnSuccess(t *testing.T) {
	l := &listing.Listing{
		ID:          "l1",
		Title:       "Desk Lamp",
		Description: "LED lamp, three brightness levels",
		Price:       800.5,
		Category:    "Electronics",
		Images:      []string{"https://x/listing_img/a.png"},
	}
	m := EditListingForm(l)
	if d := m.Draft(); d.Price != "800.5" || d.MaxImages() != MaxEditImages || len(d.Existing) != 1 {
		t.Fatalf("unexpected prefilled draft %+v", d)
	}

	if err := m.Submit(context.Background(), func(context.Context, ListingDraft) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.State() != Closed {
		t.Fatalf("expected Closed, got %s", m.State())
	}
	if err := m.Edit("title", func(*ListingDraft) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCancelReleasesAttachments(t *testing.T) {
	m := NewListingForm()
	var released atomic.Int32
	_, _ = AddListingImages(m, image("a.png", 10, &released))

	if err := m.Cancel(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released.Load() != 1 || m.State() != Closed {
		t.Fatalf("expected released and closed, got %d %s", released.Load(), m.State())
	}
}

func TestListingRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ListingDraft)
		field  string
		msg    string
	}{
		{"title missing", func(d *ListingDraft) { d.Title = "   " }, "title", "Title is required"},
		{"title short", func(d *ListingDraft) { d.Title = "Lamp" }, "title", "Title must be at least 5 characters"},
		{"title long", func(d *ListingDraft) { d.Title = strings.Repeat("x", 101) }, "title", "Title must be at most 100 characters"},
		{"description short", func(d *ListingDraft) { d.Description = strings.Repeat("d", 19) }, "description", "Description must be at least 20 characters"},
		{"description short once trimmed", func(d *ListingDraft) { d.Description = strings.Repeat("d", 19) + " " }, "description", "Description must be at least 20 characters"},
		{"title short once trimmed", func(d *ListingDraft) { d.Title = " Lamp " }, "title", "Title must be at least 5 characters"},
		{"description missing", func(d *ListingDraft) { d.Description = "" }, "description", "Description is required"},
		{"price missing", func(d *ListingDraft) { d.Price = "" }, "price", "Price is required"},
		{"price text", func(d *ListingDraft) { d.Price = "cheap" }, "price", "Please enter a valid price"},
		{"price zero", func(d *ListingDraft) { d.Price = "0" }, "price", "Please enter a valid price"},
		{"price negative", func(d *ListingDraft) { d.Price = "-3" }, "price", "Please enter a valid price"},
		{"price NaN", func(d *ListingDraft) { d.Price = "NaN" }, "price", "Please enter a valid price"},
		{"category missing", func(d *ListingDraft) { d.Category = "" }, "category", "Category is required"},
		{"category wildcard", func(d *ListingDraft) { d.Category = catalog.AllCategories }, "category", "Please select a valid category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validListing()
			tt.mutate(&d)
			errs := ListingRules(d)
			if errs[tt.field] != tt.msg {
				t.Fatalf("errs[%s] = %q, want %q", tt.field, errs[tt.field], tt.msg)
			}
			if len(errs) != 1 {
				t.Fatalf("expected only %s to fail, got %v", tt.field, errs)
			}
		})
	}

	d := validListing()
	d.Description = strings.Repeat("d", 20)
	if errs := ListingRules(d); len(errs) != 0 {
		t.Fatalf("20 character description must pass, got %v", errs)
	}
}

func TestValidDraftConvertsToFields(t *testing.T) {
	d := validListing()
	d.Title = "  Calculus Textbook  "
	f, err := d.Fields(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Title != "Calculus Textbook" || f.Price != 1500 {
		t.Fatalf("unexpected fields %+v", f)
	}
}

func TestAddImagesRejectsIndividually(t *testing.T) {
	m := NewListingForm()
	var released atomic.Int32
	pdf := NewAttachment("notes.pdf", "application/pdf", []byte("x"), func(string) { released.Add(1) })
	big := image("huge.png", MaxImageBytes+1, &released)
	ok := image("ok.png", 100, &released)

	rejected, err := AddListingImages(m, pdf, big, ok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"notes.pdf is not a valid image file", "huge.png is too large. Maximum size is 5MB"}
	if !slices.Equal(rejected, want) {
		t.Fatalf("rejected = %v, want %v", rejected, want)
	}
	if d := m.Draft(); len(d.Images) != 1 || d.Images[0] != ok {
		t.Fatalf("expected valid file kept, got %d images", len(d.Images))
	}
	if released.Load() != 2 || !pdf.Released() || ok.Released() {
		t.Fatalf("expected only rejected files released, got %d", released.Load())
	}
	if m.Errors()["images"] != want[1] {
		t.Fatalf("unexpected images error %q", m.Errors()["images"])
	}
}

func TestAddImagesLimits(t *testing.T) {
	d := ListingDraft{}
	if rejected := d.AddImages(image("1.png", 1, nil), image("2.png", 1, nil), image("3.png", 1, nil), image("4.png", 1, nil)); len(rejected) != 1 || rejected[0] != "Maximum 3 images allowed" {
		t.Fatalf("unexpected rejection %v", rejected)
	}
	if len(d.Images) != 0 {
		t.Fatal("over-limit batch must be rejected as a whole")
	}

	edit := ListingDraft{Existing: []string{"a", "b", "c"}, maxImages: MaxEditImages}
	rejected := edit.AddImages(image("1.png", 1, nil), image("2.png", 1, nil), image("3.png", 1, nil))
	if len(rejected) != 1 || rejected[0] != "You can only add 2 more image(s). Maximum 5 images allowed." {
		t.Fatalf("unexpected rejection %v", rejected)
	}
	edit.Existing = append(edit.Existing, "d", "e")
	rejected = edit.AddImages(image("1.png", 1, nil))
	if rejected[0] != "Maximum 5 images allowed. Remove some images first." {
		t.Fatalf("unexpected rejection %v", rejected)
	}

	edit.RemoveExisting("b")
	if rejected := edit.AddImages(image("1.png", 1, nil)); len(rejected) != 0 {
		t.Fatalf("expected room after removing an image, got %v", rejected)
	}
	if !slices.Equal(edit.Removed, []string{"b"}) {
		t.Fatalf("expected removed reference tracked, got %v", edit.Removed)
	}
}

func TestRemoveImageReleases(t *testing.T) {
	var released atomic.Int32
	d := ListingDraft{}
	d.AddImages(image("1.png", 1, &released), image("2.png", 1, &released))
	d.RemoveImage(0)
	d.RemoveImage(7)
	if len(d.Images) != 1 || d.Images[0].Name() != "2.png" || released.Load() != 1 {
		t.Fatalf("unexpected images after removal: %d, released %d", len(d.Images), released.Load())
	}
}

func TestAttachmentReleaseIdempotent(t *testing.T) {
	var released atomic.Int32
	a := image("a.png", 4, &released)
	if !strings.HasPrefix(a.Handle(), "preview-") {
		t.Fatalf("unexpected handle %q", a.Handle())
	}
	a.Release()
	a.Release()
	if released.Load() != 1 {
		t.Fatalf("expected one release callback, got %d", released.Load())
	}
	if a.Bytes() != nil || a.Size() != 0 {
		t.Fatal("released attachment must drop its bytes")
	}
}

func validProfile() ProfileDraft {
	return ProfileDraft{
		FullName:     "Ada Obi",
		PhoneNumber:  "+2348012345678",
		Role:         catalog.RoleStudent,
		Department:   "Department of Computer Science",
		Skills:       []string{"Programming", "Tutoring"},
		MatricNumber: "23-01-04-0208",
	}
}

func TestProfileRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProfileDraft)
		field  string
		msg    string
	}{
		{"name blank", func(d *ProfileDraft) { d.FullName = "  " }, "fullName", "Full name is required"},
		{"phone missing", func(d *ProfileDraft) { d.PhoneNumber = "" }, "phoneNumber", "Phone number is required"},
		{"phone local", func(d *ProfileDraft) { d.PhoneNumber = "08012345678" }, "phoneNumber", "Please enter a valid international phone number"},
		{"department missing", func(d *ProfileDraft) { d.Department = "" }, "department", "Department is required"},
		{"matric missing", func(d *ProfileDraft) { d.MatricNumber = "" }, "matricNumber", "Matric number is required for students"},
		{"one skill", func(d *ProfileDraft) { d.Skills = []string{"Programming", "Programming"} }, "skills", "Please select at least 2 skills"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validProfile()
			tt.mutate(&d)
			errs := ProfileRules(d)
			if errs[tt.field] != tt.msg || len(errs) != 1 {
				t.Fatalf("errs = %v, want only %s=%q", errs, tt.field, tt.msg)
			}
		})
	}
}

func TestNonTeachingStaffNeedsNoDepartment(t *testing.T) {
	d := validProfile()
	d.SetRole(catalog.RoleStaff)
	d.SetNonTeaching(true)
	if d.Department != "" {
		t.Fatal("setting non-teaching must clear the department")
	}
	if errs := ProfileRules(d); len(errs) != 0 {
		t.Fatalf("non-teaching staff must validate, got %v", errs)
	}

	d.SetRole(catalog.RoleStudent)
	if d.NonTeachingStaff {
		t.Fatal("students cannot be non-teaching staff")
	}
	if ProfileRules(d)["department"] == "" {
		t.Fatal("students need a department")
	}
}

func TestToggleSkill(t *testing.T) {
	var d ProfileDraft
	d.ToggleSkill("Sales")
	d.ToggleSkill("Tutoring")
	d.ToggleSkill("Sales")
	if !slices.Equal(d.Skills, []string{"Tutoring"}) {
		t.Fatalf("unexpected skills %v", d.Skills)
	}
}

func TestFormatMatric(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"23", "23"},
		{"2301", "23-01"},
		{"230104", "23-01-04"},
		{"2301040", "23-01-04-0"},
		{"2301040208", "23-01-04-0208"},
		{"230104020899", "23-01-04-0208"},
		{"23-01-04-0208", "23-01-04-0208"},
		{"ab23 01x", "23-01"},
	}
	for _, tt := range tests {
		if got := FormatMatric(tt.in); got != tt.want {
			t.Errorf("FormatMatric(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfileFormSubmit(t *testing.T) {
	m := NewProfileForm(nil)
	_ = m.Edit("", func(d *ProfileDraft) { *d = validProfile() })

	var params profile.CreateParams
	err := m.Submit(context.Background(), func(_ context.Context, d ProfileDraft) error {
		params = d.CreateParams("ada@campus.edu")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Email != "ada@campus.edu" || len(params.Skills) != 2 {
		t.Fatalf("unexpected params %+v", params)
	}
	if m.State() != Closed {
		t.Fatalf("expected Closed, got %s", m.State())
	}
}

func TestProfileEditPrefill(t *testing.T) {
	p := &profile.Profile{FullName: "Bola", Role: catalog.RoleStaff, NonTeachingStaff: true, Skills: []string{"Sales", "Accounting"}}
	m := NewProfileForm(p)
	d := m.Draft()
	d.Skills[0] = "Mutated"
	if p.Skills[0] != "Sales" || m.Draft().Skills[0] != "Sales" {
		t.Fatal("drafts must not share skills with the profile")
	}
	up := m.Draft().UpdateParams()
	if *up.FullName != "Bola" || !*up.NonTeachingStaff {
		t.Fatalf("unexpected update params %+v", up)
	}
}
