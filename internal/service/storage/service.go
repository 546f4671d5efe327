// Package storage stores avatar and listing image objects.
package storage

import (
	"context"
	"errors"
)

// CacheControl is set on every uploaded object.
const CacheControl = "public, max-age=3600"

// DefaultPublicBaseURL prefixes public object references.
const DefaultPublicBaseURL = "https://storage.googleapis.com"

// ErrAlreadyExists is returned when an upload would overwrite an object.
var ErrAlreadyExists = errors.New("object already exists")

// Service uploads objects and returns their public references.
// Removing a missing object succeeds.
type Service interface {
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, bucket, key string) error
}

// PublicURL returns the public reference of key in bucket.
func PublicURL(baseURL, bucket, key string) string {
	if baseURL == "" {
		baseURL = DefaultPublicBaseURL
	}
	return baseURL + "/" + bucket + "/" + key
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	if errors.Is(err, ErrAlreadyExists) {
		return "already_exists"
	}
	return "internal_error"
}
