package favorites

import "github.com/janisto/campus-market/internal/platform/timeutil"

// Favorite is a favorited listing.
type Favorite struct {
	ListingID string        `json:"listingId" doc:"Listing ID"               example:"8fG2kQ"`
	CreatedAt timeutil.Time `json:"createdAt" doc:"When it was favorited"     example:"2024-01-15T10:30:00.000Z"`
}

// ListData is the caller's favorites.
type ListData struct {
	Favorites []Favorite `json:"favorites" doc:"Favorites, newest first"`
	Count     int        `json:"count"     doc:"Number of favorites"     example:"3"`
}

// Status reports whether one listing is favorited.
type Status struct {
	ListingID string `json:"listingId" doc:"Listing ID"                  example:"8fG2kQ"`
	Favorited bool   `json:"favorited" doc:"The caller favorited it"      example:"true"`
}
