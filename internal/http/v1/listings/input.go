package listings

import "github.com/janisto/campus-market/internal/http/v1/upload"

// ListingsListInput for GET /listings (no parameters)
type ListingsListInput struct{}

// ListingIDInput identifies one listing.
type ListingIDInput struct {
	ID string `path:"id" maxLength:"128" doc:"Listing ID" example:"8fG2kQ"`
}

// ListingCreateInput for POST /listings
type ListingCreateInput struct {
	Body struct {
		Title       string         `json:"title,omitempty"       maxLength:"1000" doc:"5 to 100 characters"          example:"Calculus Textbook"`
		Description string         `json:"description,omitempty" maxLength:"5000" doc:"20 to 500 characters"         example:"Thomas Calculus 12th edition, barely used"`
		Price       *float64       `json:"price,omitempty"                        doc:"Asking price, greater than 0" example:"1500"`
		Category    string         `json:"category,omitempty"    maxLength:"100"  doc:"A catalog category"           example:"Textbooks & Course Materials"`
		Images      []upload.Image `json:"images,omitempty"      maxItems:"10"    doc:"Up to 3 images of at most 5 MB each"`
	}
}

// ListingUpdateInput for PATCH /listings/{id}
type ListingUpdateInput struct {
	ID   string `path:"id" maxLength:"128" doc:"Listing ID" example:"8fG2kQ"`
	Body struct {
		Title        *string        `json:"title,omitempty"        maxLength:"1000" doc:"5 to 100 characters"               example:"Calculus Textbook"`
		Description  *string        `json:"description,omitempty"  maxLength:"5000" doc:"20 to 500 characters"              example:"Thomas Calculus 12th edition, barely used"`
		Price        *float64       `json:"price,omitempty"                         doc:"Asking price, greater than 0"      example:"1200"`
		Category     *string        `json:"category,omitempty"     maxLength:"100"  doc:"A catalog category"                example:"Textbooks & Course Materials"`
		RemoveImages []string       `json:"removeImages,omitempty" maxItems:"5"     doc:"Stored image URLs to drop"`
		AddImages    []upload.Image `json:"addImages,omitempty"    maxItems:"10"    doc:"New images; at most 5 images in total"`
	}
}
