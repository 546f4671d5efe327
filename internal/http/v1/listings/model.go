package listings

import (
	"github.com/janisto/campus-market/internal/platform/timeutil"
)

// Listing is a listing response.
type Listing struct {
	ID          string        `json:"id"          doc:"Listing ID"                example:"8fG2kQ"`
	ProfileID   string        `json:"profileId"   doc:"Owner profile ID"          example:"user-123"`
	Title       string        `json:"title"       doc:"Title"                     example:"Calculus Textbook"`
	Description string        `json:"description" doc:"Description"               example:"Thomas Calculus 12th edition, barely used"`
	Price       float64       `json:"price"       doc:"Asking price"              example:"1500"`
	Category    string        `json:"category"    doc:"Catalog category"          example:"Textbooks & Course Materials"`
	Images      []string      `json:"images"      doc:"Public image URLs, in display order"`
	Status      string        `json:"status"      doc:"ACTIVE or SOLD"            example:"ACTIVE"`
	CreatedAt   timeutil.Time `json:"createdAt"   doc:"Creation timestamp"        example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt   timeutil.Time `json:"updatedAt"   doc:"Last update timestamp"     example:"2024-01-15T10:30:00.000Z"`
}

// ListData is the caller's listings.
type ListData struct {
	Listings []Listing `json:"listings" doc:"Listings owned by the caller, newest first"`
	Count    int       `json:"count"    doc:"Number of listings"                       example:"2"`
}
