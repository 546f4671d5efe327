package listings

// ListingsListOutput for GET /listings
type ListingsListOutput struct {
	Body ListData
}

// ListingCreateOutput for POST /listings (201 Created)
type ListingCreateOutput struct {
	Location string `header:"Location" doc:"URL of the created listing"`
	Body     Listing
}

// ListingOutput for GET and PATCH /listings/{id}
type ListingOutput struct {
	Body Listing
}
