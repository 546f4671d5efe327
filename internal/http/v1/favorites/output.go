package favorites

// FavoritesListOutput for GET /favorites
type FavoritesListOutput struct {
	Body ListData
}

// FavoriteStatusOutput for GET /favorites/{listingId}
type FavoriteStatusOutput struct {
	Body Status
}

// FavoritePutOutput for PUT /favorites/{listingId}
type FavoritePutOutput struct {
	Body Favorite
}
