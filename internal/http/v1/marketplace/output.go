package marketplace

import (
	"github.com/janisto/campus-market/internal/http/v1/listings"
	"github.com/janisto/campus-market/internal/platform/pagination"
)

// BrowseData is one filtered page of other users' listings.
type BrowseData struct {
	Listings []listings.Listing `json:"listings" doc:"Listings on this page that pass the filters, newest first"`
	Count    int                `json:"count"    doc:"Number of listings shown"                                  example:"12"`
	Label    string             `json:"label"    doc:"Page position summary"                                     example:"Showing 1 to 12 of 30 listings"`
	Meta     pagination.Meta    `json:"meta"     doc:"Position of the page among all listings"`
}

// BrowseOutput is the response wrapper with pagination Link header.
type BrowseOutput struct {
	Link string `header:"Link" doc:"RFC 8288 pagination links"`
	Body BrowseData
}
