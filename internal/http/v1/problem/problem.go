// Package problem maps marketplace failures to RFC 9457 problem responses.
package problem

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/campus-market/internal/market/marketerr"
)

// FetchRetryAfter is the retry hint sent with 503 responses for failed reads.
const FetchRetryAfter = 5 * time.Second

// From converts err into a huma status error. Validation failures carry one detail per
// field, located in the request body.
func From(err error) error {
	switch marketerr.KindOf(err) {
	case marketerr.KindValidation:
		return Validation(marketerr.FieldsOf(err))
	case marketerr.KindNotFound:
		return huma.Error404NotFound("resource not found")
	case marketerr.KindForbidden:
		return huma.Error403Forbidden("only the owner can change this resource")
	case marketerr.KindUpload:
		return huma.Error502BadGateway("image upload failed, please try again")
	case marketerr.KindWrite:
		return huma.Error500InternalServerError("could not save changes, please try again")
	case marketerr.KindFetch:
		return WithRetryAfter(huma.Error503ServiceUnavailable("data is temporarily unavailable"), FetchRetryAfter)
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

// Validation builds a 422 with one detail per field, sorted by field name.
func Validation(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	details := make([]error, 0, len(names))
	for _, name := range names {
		details = append(details, &huma.ErrorDetail{
			Location: "body." + name,
			Message:  fields[name],
		})
	}
	return huma.Error422UnprocessableEntity("validation failed", details...)
}

// WithRetryAfter attaches a Retry-After header in whole seconds, at least one.
func WithRetryAfter(err error, d time.Duration) error {
	secs := max(int((d+time.Second-1)/time.Second), 1)
	headers := make(http.Header)
	headers.Set("Retry-After", strconv.Itoa(secs))
	return huma.ErrorWithHeaders(err, headers)
}
