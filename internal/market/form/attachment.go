package form

import (
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/janisto/campus-market/internal/market/mutation"
)

// MaxImageBytes is the size limit of one image.
const MaxImageBytes = 5 << 20

// Attachment is a file staged for upload. It owns its bytes and a preview handle until
// Release; releasing twice is a no-op.
type Attachment struct {
	mu          sync.Mutex
	name        string
	contentType string
	data        []byte
	handle      string
	released    bool
	onRelease   func(handle string)
}

var _ mutation.Staged = (*Attachment)(nil)

// NewAttachment stages data. onRelease, when set, is called once with the preview handle.
func NewAttachment(name, contentType string, data []byte, onRelease func(handle string)) *Attachment {
	return &Attachment{
		name:        name,
		contentType: contentType,
		data:        data,
		handle:      "preview-" + uuid.NewString(),
		onRelease:   onRelease,
	}
}

func (a *Attachment) Name() string        { return a.name }
func (a *Attachment) ContentType() string { return a.contentType }

// Bytes returns the staged bytes, or nil after Release.
func (a *Attachment) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// Size returns the staged byte count.
func (a *Attachment) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.data)
}

// Handle identifies the preview shown for the attachment.
func (a *Attachment) Handle() string { return a.handle }

// Released reports whether Release ran.
func (a *Attachment) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

// Release drops the bytes and the preview handle.
func (a *Attachment) Release() {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	a.released = true
	a.data = nil
	fn := a.onRelease
	a.mu.Unlock()
	if fn != nil {
		fn(a.handle)
	}
}

// CheckImage returns the rejection message for a file that cannot be attached as an
// image, or "".
func CheckImage(a *Attachment) string {
	mediaType, _, err := mime.ParseMediaType(a.ContentType())
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return fmt.Sprintf("%s is not a valid image file", a.Name())
	}
	if a.Size() > MaxImageBytes {
		return fmt.Sprintf("%s is too large. Maximum size is 5MB", a.Name())
	}
	return ""
}

// ReleaseAll releases every attachment.
func ReleaseAll(as []*Attachment) {
	for _, a := range as {
		a.Release()
	}
}
