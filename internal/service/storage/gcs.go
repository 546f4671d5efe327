package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

// BucketOpener resolves a bucket name to a handle. The Firebase storage client and a
// *gcs.Client adapted with Buckets both satisfy it.
type BucketOpener interface {
	Bucket(name string) (*gcs.BucketHandle, error)
}

// Buckets adapts a Cloud Storage client to BucketOpener.
type Buckets struct {
	Client *gcs.Client
}

func (b Buckets) Bucket(name string) (*gcs.BucketHandle, error) {
	return b.Client.Bucket(name), nil
}

// GCSStore implements Service on Cloud Storage.
type GCSStore struct {
	buckets BucketOpener
	baseURL string
}

// NewGCSStore creates a store. baseURL prefixes public references; empty selects
// DefaultPublicBaseURL.
func NewGCSStore(buckets BucketOpener, baseURL string) *GCSStore {
	return &GCSStore{buckets: buckets, baseURL: baseURL}
}

// Upload writes a new object. Existing objects are never overwritten.
func (s *GCSStore) Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	handle, err := s.buckets.Bucket(bucket)
	if err != nil {
		return "", fmt.Errorf("open bucket %s: %w", bucket, err)
	}

	w := handle.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = CacheControl
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", s.uploadFailed(ctx, bucket, key, err)
	}
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			err = ErrAlreadyExists
		}
		return "", s.uploadFailed(ctx, bucket, key, err)
	}

	applog.LogAuditEvent(ctx, "upload", "", "object", bucket+"/"+key, applog.ResultSuccess,
		map[string]any{"bytes": len(data), "contentType": contentType})
	return PublicURL(s.baseURL, bucket, key), nil
}

func (s *GCSStore) uploadFailed(ctx context.Context, bucket, key string, err error) error {
	applog.LogAuditEvent(ctx, "upload", "", "object", bucket+"/"+key, applog.ResultFailure,
		map[string]any{"error": categorizeError(err)})
	return err
}

// Remove deletes an object. A missing object is not an error.
func (s *GCSStore) Remove(ctx context.Context, bucket, key string) error {
	handle, err := s.buckets.Bucket(bucket)
	if err != nil {
		return fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	err = handle.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		applog.LogAuditEvent(ctx, "remove", "", "object", bucket+"/"+key, applog.ResultFailure,
			map[string]any{"error": categorizeError(err)})
		return err
	}

	applog.LogAuditEvent(ctx, "remove", "", "object", bucket+"/"+key, applog.ResultSuccess, nil)
	return nil
}

// Compile-time interface check
var _ Service = (*GCSStore)(nil)
