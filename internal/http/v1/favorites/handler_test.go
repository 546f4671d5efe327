package favorites

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/market/cache"
	"github.com/janisto/campus-market/internal/platform/auth"
	applog "github.com/janisto/campus-market/internal/platform/logging"
	appmiddleware "github.com/janisto/campus-market/internal/platform/middleware"
	"github.com/janisto/campus-market/internal/service/favorite"
	"github.com/janisto/campus-market/internal/service/listing"
	profilesvc "github.com/janisto/campus-market/internal/service/profile"
	"github.com/janisto/campus-market/internal/service/storage"
)

type fixture struct {
	router    chi.Router
	favorites *favorite.MockFavoriteService
	listings  *listing.MockListingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		favorites: favorite.NewMockFavoriteService(),
		listings:  listing.NewMockListingService(),
	}
	for _, id := range []string{"lamp", "desk"} {
		f.listings.Put(listing.Listing{
			ID:        id,
			ProfileID: "seller",
			Title:     "Listing " + id,
			Price:     1000,
			Category:  "Electronics",
			Status:    "ACTIVE",
			CreatedAt: time.Now(),
		})
	}
	mp := market.New(cache.New(), storage.NewMockStorageService(), profilesvc.NewMockProfileService(), f.listings, f.favorites)

	router := chi.NewRouter()
	router.Use(appmiddleware.RequestID(), applog.RequestLogger())
	api := humachi.New(router, huma.DefaultConfig("FavoritesTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, &auth.MockVerifier{User: auth.TestUser()}))
	Register(api, mp)
	f.router = router
	return f
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) status(t *testing.T, listingID string) bool {
	t.Helper()
	resp := f.do(http.MethodGet, "/favorites/"+listingID)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var s Status
	if err := json.Unmarshal(resp.Body.Bytes(), &s); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	return s.Favorited
}

func TestFavoriteLifecycle(t *testing.T) {
	f := newFixture(t)

	if f.status(t, "lamp") {
		t.Fatal("expected lamp not favorited")
	}
	if resp := f.do(http.MethodPut, "/favorites/lamp"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !f.status(t, "lamp") {
		t.Fatal("expected the cached status refreshed after favoriting")
	}
	if resp := f.do(http.MethodDelete, "/favorites/lamp"); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}
	if f.status(t, "lamp") {
		t.Fatal("expected lamp unfavorited")
	}
}

func TestFavoriteTwiceKeepsOne(t *testing.T) {
	f := newFixture(t)
	_ = f.do(http.MethodPut, "/favorites/lamp")
	_ = f.do(http.MethodPut, "/favorites/lamp")
	_ = f.do(http.MethodPut, "/favorites/desk")

	resp := f.do(http.MethodGet, "/favorites")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var data ListData
	if err := json.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if data.Count != 2 || f.favorites.Count() != 2 {
		t.Fatalf("expected 2 favorites, got %d (%d stored)", data.Count, f.favorites.Count())
	}
	if data.Favorites[0].ListingID != "desk" {
		t.Errorf("expected newest first, got %s", data.Favorites[0].ListingID)
	}
}

func TestFavoriteUnknownListing(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(http.MethodPut, "/favorites/missing"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
	if f.favorites.Calls("Add") != 0 {
		t.Fatal("unknown listings must not be favorited")
	}
}

func TestUnfavoriteAbsentSucceeds(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(http.MethodDelete, "/favorites/desk"); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestFavoriteInvalidID(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(http.MethodDelete, "/favorites/bad_id"); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestFavoritesListFailure(t *testing.T) {
	f := newFixture(t)
	f.favorites.FailNext("List", errors.New("firestore unavailable"))
	if resp := f.do(http.MethodGet, "/favorites"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.Code, resp.Body.String())
	}
}
