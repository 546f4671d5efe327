// Package upload carries image files in request bodies. Data is base64 in JSON and a byte
// string in CBOR.
package upload

import (
	"net/http"
	"strings"

	"github.com/janisto/campus-market/internal/market/form"
)

// MaxBodyBytes bounds request bodies that carry images: five files at the size limit
// after base64 expansion, plus the form fields.
const MaxBodyBytes = 36 << 20

// Image is one file picked by the user.
type Image struct {
	Name        string `json:"name"                  maxLength:"255" doc:"Original file name"                                    example:"cover.jpg"`
	ContentType string `json:"contentType,omitempty" maxLength:"127" doc:"MIME type; sniffed from the data when omitted"         example:"image/jpeg"`
	Data        []byte `json:"data"                                  doc:"File contents (base64 in JSON, byte string in CBOR)"`
}

// Attachment stages the image for a form. The caller owns the returned attachment.
func (i Image) Attachment() *form.Attachment {
	ct := strings.TrimSpace(i.ContentType)
	if ct == "" {
		ct = http.DetectContentType(i.Data)
	}
	return form.NewAttachment(i.Name, ct, i.Data, nil)
}

// Attachments stages every image in order.
func Attachments(images []Image) []*form.Attachment {
	out := make([]*form.Attachment, 0, len(images))
	for _, img := range images {
		out = append(out, img.Attachment())
	}
	return out
}
