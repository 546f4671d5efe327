// Package marketerr classifies failures surfaced by the marketplace sync layer.
//
// Backend errors never reach handlers raw: the query cache converts read failures into
// fetch errors, the mutation coordinator converts upload and write failures, and form
// validation produces validation errors with per-field messages.
package marketerr

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Kind classifies a marketplace failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindUpload     Kind = "upload"
	KindWrite      Kind = "write"
	KindFetch      Kind = "fetch"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrUpload     = errors.New("upload failed")
	ErrWrite      = errors.New("write failed")
	ErrFetch      = errors.New("fetch failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

var sentinels = map[Kind]error{
	KindValidation: ErrValidation,
	KindUpload:     ErrUpload,
	KindWrite:      ErrWrite,
	KindFetch:      ErrFetch,
	KindNotFound:   ErrNotFound,
	KindForbidden:  ErrForbidden,
}

// Error is a classified failure. Op names the read or mutation that failed.
type Error struct {
	Kind   Kind
	Op     string
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, sentinels[e.Kind])
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (%d fields)", len(e.Fields))
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == sentinels[e.Kind]
}

// Validation reports per-field rule failures. Fields maps a field name to its message.
func Validation(op string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: maps.Clone(fields)}
}

// Upload wraps an object storage failure that aborted a mutation before its write.
func Upload(op string, cause error) *Error {
	return &Error{Kind: KindUpload, Op: op, cause: cause}
}

// Write wraps a failed insert, update or delete.
func Write(op string, cause error) *Error {
	return &Error{Kind: KindWrite, Op: op, cause: cause}
}

// Fetch wraps a failed read.
func Fetch(op string, cause error) *Error {
	return &Error{Kind: KindFetch, Op: op, cause: cause}
}

// NotFound marks a missing record. A missing profile starts profile setup.
func NotFound(op string, cause error) *Error {
	return &Error{Kind: KindNotFound, Op: op, cause: cause}
}

// Forbidden marks a mutation attempted by someone other than the owner.
func Forbidden(op string, cause error) *Error {
	return &Error{Kind: KindForbidden, Op: op, cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// FieldsOf returns the per-field messages of a validation error.
func FieldsOf(err error) map[string]string {
	var me *Error
	if errors.As(err, &me) {
		return me.Fields
	}
	return nil
}

// As returns err as an *Error, wrapping unclassified errors with wrap.
func As(err error, wrap func(error) *Error) *Error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return me
	}
	return wrap(err)
}
