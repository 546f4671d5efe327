package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/campus-market/internal/http/v1/catalog"
	"github.com/janisto/campus-market/internal/http/v1/favorites"
	"github.com/janisto/campus-market/internal/http/v1/listings"
	"github.com/janisto/campus-market/internal/http/v1/marketplace"
	"github.com/janisto/campus-market/internal/http/v1/profile"
	"github.com/janisto/campus-market/internal/http/v1/session"
	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/platform/auth"
)

// Register wires all HTTP routes into the provided API router.
func Register(
	api huma.API,
	verifier auth.Verifier,
	sessions *auth.Sessions,
	mp *market.Marketplace,
) {
	prefix := apiPrefix(api)

	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))

	catalog.Register(api)
	session.Register(api, sessions, mp)
	profile.Register(api, mp, prefix)
	listings.Register(api, mp, prefix)
	marketplace.Register(api, mp, prefix)
	favorites.Register(api, mp)
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
