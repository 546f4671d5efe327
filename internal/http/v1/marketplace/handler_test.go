package marketplace

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
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
	router   chi.Router
	listings *listing.MockListingService
}

func newFixture(t *testing.T, opts ...market.Option) *fixture {
	t.Helper()
	f := &fixture{listings: listing.NewMockListingService()}
	mp := market.New(cache.New(), storage.NewMockStorageService(), profilesvc.NewMockProfileService(),
		f.listings, favorite.NewMockFavoriteService(), opts...)

	router := chi.NewRouter()
	router.Use(appmiddleware.RequestID(), applog.RequestLogger())
	api := humachi.New(router, huma.DefaultConfig("MarketplaceTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, &auth.MockVerifier{User: auth.TestUser()}))
	Register(api, mp, "/v1")
	f.router = router
	return f
}

// seed stores n listings of owner priced 100, 200, ... with the newest last.
func (f *fixture) seed(owner string, n int, category string) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range n {
		f.listings.Put(listing.Listing{
			ID:          fmt.Sprintf("%s-%02d", owner, i+1),
			ProfileID:   owner,
			Title:       fmt.Sprintf("Item %02d", i+1),
			Description: "A well kept item from the campus marketplace",
			Price:       float64((i + 1) * 100),
			Category:    category,
			Status:      "ACTIVE",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) BrowseData {
	t.Helper()
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var data BrowseData
	if err := json.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	return data
}

func TestBrowseFirstPage(t *testing.T) {
	f := newFixture(t)
	f.seed("seller", 14, "Electronics")
	f.seed("test-user-123", 2, "Electronics")

	resp := f.get("/marketplace")
	data := decode(t, resp)
	if data.Count != 12 || len(data.Listings) != 12 {
		t.Fatalf("expected 12 listings, got %d", data.Count)
	}
	if data.Meta.Total != 14 || data.Meta.TotalPages != 2 {
		t.Fatalf("unexpected meta %+v", data.Meta)
	}
	if data.Label != "Showing 1 to 12 of 14 listings" {
		t.Errorf("unexpected label %q", data.Label)
	}
	if data.Listings[0].ID != "seller-14" {
		t.Errorf("expected newest first, got %s", data.Listings[0].ID)
	}
	for _, l := range data.Listings {
		if l.ProfileID == "test-user-123" {
			t.Fatal("own listings must not be shown")
		}
	}

	link := resp.Header().Get("Link")
	if !strings.Contains(link, `</v1/marketplace?page=2&pageSize=12>; rel="next"`) {
		t.Errorf("expected next link, got %q", link)
	}
	if strings.Contains(link, `rel="prev"`) {
		t.Error("first page should not have rel=prev")
	}
}

func TestBrowseSecondPage(t *testing.T) {
	f := newFixture(t)
	f.seed("seller", 14, "Electronics")

	data := decode(t, f.get("/marketplace?page=2"))
	if data.Count != 2 || data.Label != "Showing 13 to 14 of 14 listings" {
		t.Fatalf("unexpected page %d %q", data.Count, data.Label)
	}
	if !data.Meta.HasPrev || data.Meta.HasNext {
		t.Errorf("unexpected meta %+v", data.Meta)
	}
}

func TestBrowseConfiguredPageSize(t *testing.T) {
	f := newFixture(t, market.WithPageSize(5))
	f.seed("seller", 7, "Electronics")

	data := decode(t, f.get("/marketplace"))
	if data.Count != 5 || data.Meta.PageSize != 5 {
		t.Fatalf("expected configured page size 5, got %+v", data.Meta)
	}
	data = decode(t, f.get("/marketplace?pageSize=3"))
	if data.Count != 3 {
		t.Fatalf("expected requested page size 3, got %d", data.Count)
	}
}

func TestBrowseFilters(t *testing.T) {
	f := newFixture(t)
	f.seed("seller", 6, "Electronics")
	f.seed("other", 3, "Furniture & Dorm Essentials")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"text", "?q=item%2003", 2},
		{"category", "?category=Furniture+%26+Dorm+Essentials", 3},
		{"all categories", "?category=All+Categories", 9},
		{"min price", "?minPrice=500", 2},
		{"price range", "?minPrice=200&maxPrice=300", 4},
		{"conjunction", "?category=Electronics&maxPrice=200", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := decode(t, f.get("/marketplace"+tt.query))
			if data.Count != tt.want {
				t.Fatalf("expected %d listings, got %d", tt.want, data.Count)
			}
		})
	}
}

func TestBrowseLinkKeepsFilters(t *testing.T) {
	f := newFixture(t)
	f.seed("seller", 14, "Electronics")

	link := f.get("/marketplace?category=Electronics&minPrice=100").Header().Get("Link")
	if !strings.Contains(link, "category=Electronics") || !strings.Contains(link, "minPrice=100") {
		t.Fatalf("expected filters in links, got %q", link)
	}
}

func TestBrowseUnknownCategory(t *testing.T) {
	f := newFixture(t)
	resp := f.get("/marketplace?category=Spaceships")
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBrowseEmpty(t *testing.T) {
	f := newFixture(t)
	data := decode(t, f.get("/marketplace"))
	if data.Count != 0 || data.Label != "No listings" || data.Listings == nil {
		t.Fatalf("unexpected empty page %+v", data)
	}
	if data.Meta.TotalPages != 0 || data.Meta.HasNext {
		t.Errorf("unexpected meta %+v", data.Meta)
	}
}

func TestBrowseFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.listings.FailNext("Browse", errors.New("firestore unavailable"))

	resp := f.get("/marketplace")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.Code, resp.Body.String())
	}
}
