package problem

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/campus-market/internal/market/marketerr"
)

func TestFromStatus(t *testing.T) {
	cause := errors.New("backend down")
	tests := []struct {
		name   string
		err    error
		status int
		retry  string
	}{
		{"validation", marketerr.Validation("create_listing", map[string]string{"title": "Title is required"}), http.StatusUnprocessableEntity, ""},
		{"not found", marketerr.NotFound("get_profile", cause), http.StatusNotFound, ""},
		{"forbidden", marketerr.Forbidden("update_listing", cause), http.StatusForbidden, ""},
		{"upload", marketerr.Upload("create_listing", cause), http.StatusBadGateway, ""},
		{"write", marketerr.Write("create_listing", cause), http.StatusInternalServerError, ""},
		{"fetch", marketerr.Fetch("browse_listings", cause), http.StatusServiceUnavailable, "5"},
		{"unclassified", cause, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := From(tt.err)
			var se huma.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected a status error, got %T", err)
			}
			if se.GetStatus() != tt.status {
				t.Fatalf("status = %d, want %d", se.GetStatus(), tt.status)
			}
			var retry string
			var he huma.HeadersError
			if errors.As(err, &he) {
				retry = he.GetHeaders().Get("Retry-After")
			}
			if retry != tt.retry {
				t.Fatalf("Retry-After = %q, want %q", retry, tt.retry)
			}
		})
	}
}

func TestValidationDetailsSorted(t *testing.T) {
	err := Validation(map[string]string{
		"title": "Title is required",
		"price": "Price is required",
	})
	var model *huma.ErrorModel
	if !errors.As(err, &model) {
		t.Fatalf("expected *huma.ErrorModel, got %T", err)
	}
	if len(model.Errors) != 2 {
		t.Fatalf("expected 2 details, got %d", len(model.Errors))
	}
	if model.Errors[0].Location != "body.price" || model.Errors[1].Location != "body.title" {
		t.Fatalf("unexpected order %s, %s", model.Errors[0].Location, model.Errors[1].Location)
	}
	if model.Errors[1].Message != "Title is required" {
		t.Fatalf("unexpected message %q", model.Errors[1].Message)
	}
}

func TestWithRetryAfterRoundsUp(t *testing.T) {
	tests := map[time.Duration]string{
		0:                      "1",
		300 * time.Millisecond: "1",
		20 * time.Second:       "20",
		20*time.Second + 1:     "21",
	}
	for d, want := range tests {
		var he huma.HeadersError
		if !errors.As(WithRetryAfter(huma.Error429TooManyRequests("slow down"), d), &he) {
			t.Fatalf("%s: expected headers", d)
		}
		if got := he.GetHeaders().Get("Retry-After"); got != want {
			t.Errorf("WithRetryAfter(%s) = %q, want %q", d, got, want)
		}
	}
}
