package favorites

// FavoritesListInput for GET /favorites (no parameters)
type FavoritesListInput struct{}

// FavoriteInput identifies a favorited listing.
type FavoriteInput struct {
	ListingID string `path:"listingId" maxLength:"128" doc:"Listing ID" example:"8fG2kQ"`
}
