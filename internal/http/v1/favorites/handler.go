package favorites

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/campus-market/internal/http/v1/problem"
	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/platform/auth"
	"github.com/janisto/campus-market/internal/platform/timeutil"
	"github.com/janisto/campus-market/internal/service/favorite"
)

// Register registers favorite endpoints.
func Register(api huma.API, mp *market.Marketplace) {
	huma.Register(api, huma.Operation{
		OperationID: "list-favorites",
		Method:      http.MethodGet,
		Path:        "/favorites",
		Summary:     "List my favorites",
		Tags:        []string{"Favorites"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *FavoritesListInput) (*FavoritesListOutput, error) {
		user := auth.UserFromContext(ctx)

		favs, err := mp.Favorites(user.UID).List(ctx)
		if err != nil {
			return nil, problem.From(err)
		}
		out := &FavoritesListOutput{Body: ListData{Favorites: make([]Favorite, 0, len(favs)), Count: len(favs)}}
		for _, f := range favs {
			out.Body.Favorites = append(out.Body.Favorites, toHTTPFavorite(f))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-favorite",
		Method:      http.MethodGet,
		Path:        "/favorites/{listingId}",
		Summary:     "Check whether a listing is favorited",
		Tags:        []string{"Favorites"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *FavoriteInput) (*FavoriteStatusOutput, error) {
		user := auth.UserFromContext(ctx)

		ok, err := mp.Favorites(user.UID).IsFavorited(ctx, input.ListingID)
		if err != nil {
			return nil, problem.From(err)
		}
		return &FavoriteStatusOutput{Body: Status{ListingID: input.ListingID, Favorited: ok}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-favorite",
		Method:      http.MethodPut,
		Path:        "/favorites/{listingId}",
		Summary:     "Favorite a listing",
		Description: "Favorites an existing listing. Favoriting it again keeps one favorite.",
		Tags:        []string{"Favorites"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *FavoriteInput) (*FavoritePutOutput, error) {
		user := auth.UserFromContext(ctx)

		if _, err := mp.Listing(ctx, input.ListingID); err != nil {
			return nil, problem.From(err)
		}
		f, err := mp.Favorites(user.UID).Add(ctx, input.ListingID)
		if err != nil {
			return nil, problem.From(err)
		}
		return &FavoritePutOutput{Body: toHTTPFavorite(f)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-favorite",
		Method:        http.MethodDelete,
		Path:          "/favorites/{listingId}",
		Summary:       "Unfavorite a listing",
		Description:   "Removing a listing that is not favorited succeeds.",
		Tags:          []string{"Favorites"},
		DefaultStatus: http.StatusNoContent,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *FavoriteInput) (*struct{}, error) {
		user := auth.UserFromContext(ctx)

		if err := mp.Favorites(user.UID).Remove(ctx, input.ListingID); err != nil {
			return nil, problem.From(err)
		}
		return nil, nil
	})
}

func toHTTPFavorite(f favorite.Favorite) Favorite {
	return Favorite{ListingID: f.ListingID, CreatedAt: timeutil.Time{Time: f.CreatedAt}}
}
