package marketplace

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/campus-market/internal/http/v1/listings"
	"github.com/janisto/campus-market/internal/http/v1/problem"
	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/market/browse"
	"github.com/janisto/campus-market/internal/market/catalog"
	"github.com/janisto/campus-market/internal/platform/auth"
	applog "github.com/janisto/campus-market/internal/platform/logging"
	"github.com/janisto/campus-market/internal/platform/pagination"
)

// Register wires the marketplace browse route into the provided API router.
func Register(api huma.API, mp *market.Marketplace, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "browse-marketplace",
		Method:      http.MethodGet,
		Path:        "/marketplace",
		Summary:     "Browse other users' listings",
		Description: "Returns one page of listings posted by other users. Filters apply to the listings of the requested page. Use the Link header to navigate between pages.",
		Tags:        []string{"Marketplace"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *BrowseInput) (*BrowseOutput, error) {
		user := auth.UserFromContext(ctx)

		if !catalog.IsWildcard(input.Category) && !catalog.IsCategory(input.Category) {
			return nil, huma.Error422UnprocessableEntity("validation failed", &huma.ErrorDetail{
				Location: "query.category",
				Message:  "Please select a valid category",
				Value:    input.Category,
			})
		}

		state := stateFor(mp, input)
		page, err := mp.Browse(ctx, user.UID, state)
		if err != nil {
			return nil, problem.From(err)
		}
		applog.LogInfo(ctx, "marketplace browsed",
			zap.Int("page", page.Meta.Page),
			zap.Int("shown", page.Count),
			zap.Int("total", page.Meta.Total),
		)

		out := &BrowseOutput{
			Link: pageLinks(prefix+"/marketplace", input, page),
			Body: BrowseData{
				Listings: make([]listings.Listing, 0, page.Count),
				Count:    page.Count,
				Label:    page.Label(),
				Meta:     page.Meta,
			},
		}
		for _, l := range page.Listings {
			out.Body.Listings = append(out.Body.Listings, listings.ToHTTPListing(l))
		}
		return out, nil
	})
}

// stateFor builds the browse state of the request. The page is set after the filter
// since a filter change returns to page 1.
func stateFor(mp *market.Marketplace, input *BrowseInput) *browse.State {
	state := mp.NewBrowseState()
	if input.PageSize > 0 {
		state = browse.NewState(input.PageSize)
	}
	state.SetFilter(browse.Filter{
		Query:    input.Query,
		Category: input.Category,
		MinPrice: bound(input.MinPrice),
		MaxPrice: bound(input.MaxPrice),
	})
	state.SetPage(input.Page)
	return state
}

func bound(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func pageLinks(baseURL string, input *BrowseInput, page browse.Page) string {
	query := url.Values{}
	if input.Query != "" {
		query.Set("q", input.Query)
	}
	if !catalog.IsWildcard(input.Category) {
		query.Set("category", input.Category)
	}
	if input.MinPrice > 0 {
		query.Set("minPrice", strconv.FormatFloat(input.MinPrice, 'f', -1, 64))
	}
	if input.MaxPrice > 0 {
		query.Set("maxPrice", strconv.FormatFloat(input.MaxPrice, 'f', -1, 64))
	}
	return pagination.BuildLinkHeader(baseURL, query, page.Meta)
}
