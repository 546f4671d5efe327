package marketplace

import "github.com/janisto/campus-market/internal/platform/pagination"

// BrowseInput defines the query parameters of the marketplace grid.
type BrowseInput struct {
	pagination.Params
	Query    string  `query:"q"        maxLength:"100" doc:"Case-insensitive match on title or description" example:"lamp"`
	Category string  `query:"category" maxLength:"100" doc:"Category, or All Categories"                   example:"Electronics"`
	MinPrice float64 `query:"minPrice" minimum:"0"     doc:"Lowest price; 0 leaves it open"                 example:"1000"`
	MaxPrice float64 `query:"maxPrice" minimum:"0"     doc:"Highest price; 0 leaves it open"                example:"50000"`
}
