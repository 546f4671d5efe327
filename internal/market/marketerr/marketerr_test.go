package marketerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindSentinels(t *testing.T) {
	cause := errors.New("rpc unavailable")
	tests := []struct {
		name     string
		err      *Error
		sentinel error
		kind     Kind
	}{
		{"upload", Upload("create-listing", cause), ErrUpload, KindUpload},
		{"write", Write("create-listing", cause), ErrWrite, KindWrite},
		{"fetch", Fetch("listings", cause), ErrFetch, KindFetch},
		{"not found", NotFound("profile", cause), ErrNotFound, KindNotFound},
		{"forbidden", Forbidden("delete-listing", cause), ErrForbidden, KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Fatalf("expected errors.Is(%v, %v)", wrapped, tt.sentinel)
			}
			if !errors.Is(wrapped, cause) {
				t.Fatal("expected cause to stay reachable")
			}
			if KindOf(wrapped) != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, KindOf(wrapped))
			}
			for _, other := range []error{ErrValidation, ErrUpload, ErrWrite, ErrFetch, ErrNotFound, ErrForbidden} {
				if other != tt.sentinel && errors.Is(wrapped, other) {
					t.Fatalf("did not expect match against %v", other)
				}
			}
		})
	}
}

func TestValidationCopiesFields(t *testing.T) {
	fields := map[string]string{"title": "Title is required"}
	err := Validation("create-listing", fields)
	fields["title"] = "mutated"

	if got := FieldsOf(err)["title"]; got != "Title is required" {
		t.Fatalf("expected copied field message, got %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected validation sentinel")
	}
	if !strings.Contains(err.Error(), "1 fields") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("expected empty kind for plain error")
	}
	if FieldsOf(errors.New("plain")) != nil {
		t.Fatal("expected nil fields for plain error")
	}
}

func TestAsKeepsClassifiedErrors(t *testing.T) {
	nf := NotFound("profile", nil)
	if got := As(fmt.Errorf("wrap: %w", nf), func(err error) *Error { return Fetch("profile", err) }); got != nf {
		t.Fatalf("expected original error, got %v", got)
	}
	plain := errors.New("deadline exceeded")
	got := As(plain, func(err error) *Error { return Fetch("profile", err) })
	if got.Kind != KindFetch || !errors.Is(got, plain) {
		t.Fatalf("expected fetch wrapping, got %v", got)
	}
	if As(nil, nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
