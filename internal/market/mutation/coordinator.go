// Package mutation runs marketplace writes through a fixed pipeline: upload staged
// attachments, write the primary record, invalidate affected cache keys, then run
// follow-ups.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/janisto/campus-market/internal/market/cache"
	"github.com/janisto/campus-market/internal/market/marketerr"
	applog "github.com/janisto/campus-market/internal/platform/logging"
)

// Staged is an attachment ready for upload.
type Staged interface {
	Name() string
	ContentType() string
	Bytes() []byte
}

// ObjectStore uploads and removes objects in bucket namespaces.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, bucket, key string) error
}

// Upload is one attachment and its destination bucket.
type Upload struct {
	Bucket string
	File   Staged
}

// Mutation describes one write.
type Mutation[T any] struct {
	// Name is the operation label used in errors and audit events, e.g. "create_listing".
	Name string
	// Actor is the acting profile ID. It prefixes object keys.
	Actor        string
	ResourceType string
	ResourceID   string
	Uploads      []Upload
	// Write performs the primary write. refs holds the public references of Uploads in order.
	Write func(ctx context.Context, refs []string) (T, error)
	// Invalidate lists key prefixes to mark stale after a successful write.
	Invalidate []cache.Key
	// FollowUps run in order after invalidation.
	FollowUps []func(T)
}

// Coordinator runs mutations against one cache store and object store.
type Coordinator struct {
	store   *cache.Store
	objects ObjectStore
	newID   func() string
}

// New returns a coordinator.
func New(store *cache.Store, objects ObjectStore) *Coordinator {
	return &Coordinator{
		store:   store,
		objects: objects,
		newID:   uuid.NewString,
	}
}

// Store returns the cache store mutations invalidate.
func (c *Coordinator) Store() *cache.Store {
	return c.store
}

type uploaded struct {
	bucket string
	key    string
}

// Run executes m. Uploads run one at a time and all finish before Write is called.
// A failed upload aborts the mutation without calling Write. A failed write removes
// this mutation's uploads. Neither failure invalidates the cache or runs follow-ups.
func Run[T any](ctx context.Context, c *Coordinator, m Mutation[T]) (T, error) {
	var zero T
	if m.Write == nil {
		return zero, marketerr.Write(m.Name, errors.New("mutation has no write"))
	}

	refs := make([]string, 0, len(m.Uploads))
	done := make([]uploaded, 0, len(m.Uploads))
	for _, up := range m.Uploads {
		key := ObjectKey(m.Actor, c.newID(), up.File)
		ref, err := c.objects.Upload(ctx, up.Bucket, key, up.File.ContentType(), up.File.Bytes())
		if err != nil {
			c.cleanup(ctx, m.Name, done)
			err = marketerr.As(err, func(err error) *marketerr.Error { return marketerr.Upload(m.Name, err) })
			audit(ctx, m, err)
			return zero, err
		}
		refs = append(refs, ref)
		done = append(done, uploaded{bucket: up.Bucket, key: key})
	}

	result, err := m.Write(ctx, refs)
	if err != nil {
		c.cleanup(ctx, m.Name, done)
		err = marketerr.As(err, func(err error) *marketerr.Error { return marketerr.Write(m.Name, err) })
		audit(ctx, m, err)
		return zero, err
	}

	c.store.InvalidateKeys(m.Invalidate...)
	for _, follow := range m.FollowUps {
		follow(result)
	}
	audit(ctx, m, nil)
	return result, nil
}

// Discard removes objects by public reference, best effort. It backs follow-ups that drop
// images no longer referenced by a record.
func (c *Coordinator) Discard(ctx context.Context, op, bucket string, refs []string) {
	done := make([]uploaded, 0, len(refs))
	for _, ref := range refs {
		if key := ObjectKeyFromURL(ref, bucket); key != "" {
			done = append(done, uploaded{bucket: bucket, key: key})
		}
	}
	c.cleanup(ctx, op, done)
}

func (c *Coordinator) cleanup(ctx context.Context, op string, done []uploaded) {
	ctx = context.WithoutCancel(ctx)
	for _, obj := range done {
		if err := c.objects.Remove(ctx, obj.bucket, obj.key); err != nil {
			applog.LogWarn(ctx, "failed to remove orphaned upload",
				zap.String("op", op),
				zap.String("bucket", obj.bucket),
				zap.String("key", obj.key),
				zap.Error(err),
			)
		}
	}
}

func audit[T any](ctx context.Context, m Mutation[T], err error) {
	applog.AuditOutcome(ctx, m.Name, m.Actor, m.ResourceType, m.ResourceID, err, categorizeError)
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	if kind := marketerr.KindOf(err); kind != "" {
		return string(kind)
	}
	return "internal_error"
}

// ObjectKey returns "<actor>-<id>.<ext>". The extension comes from the file name, or from
// the content type when the name has none.
func ObjectKey(actor, id string, file Staged) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(file.Name()), "."))
	if ext == "" {
		ext = extensionFor(file.ContentType())
	}
	if ext == "" {
		return fmt.Sprintf("%s-%s", actor, id)
	}
	return fmt.Sprintf("%s-%s.%s", actor, id, ext)
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return "jpg"
	case "image/svg+xml":
		return "svg"
	}
	_, sub, ok := strings.Cut(mediaType, "/")
	if !ok {
		return ""
	}
	return sub
}

// ObjectKeyFromURL returns the object key at the end of a public reference, or "".
func ObjectKeyFromURL(ref, bucket string) string {
	marker := "/" + bucket + "/"
	i := strings.LastIndex(ref, marker)
	if i < 0 {
		return ""
	}
	return ref[i+len(marker):]
}
