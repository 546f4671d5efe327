package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/campus-market/internal/market/catalog"
	applog "github.com/janisto/campus-market/internal/platform/logging"
	appmiddleware "github.com/janisto/campus-market/internal/platform/middleware"
	"github.com/janisto/campus-market/internal/platform/respond"
)

func newTestRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("CatalogTest", "test"))
	Register(api)
	return router
}

func TestGetJSON(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "catalog-get-json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	if cc := resp.Header().Get("Cache-Control"); cc != cacheControl {
		t.Errorf("expected Cache-Control %q, got %q", cacheControl, cc)
	}

	var data Data
	if err := json.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if !slices.Equal(data.Categories, catalog.Categories) {
		t.Errorf("unexpected categories %v", data.Categories)
	}
	if !slices.Contains(data.Skills, "Programming") || len(data.Departments) != len(catalog.Departments) {
		t.Errorf("unexpected skills or departments")
	}
	if !slices.Equal(data.Roles, []string{"STUDENT", "STAFF"}) {
		t.Errorf("unexpected roles %v", data.Roles)
	}
}

func TestGetCBOR(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Accept", "application/cbor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Errorf("expected application/cbor, got %s", ct)
	}
	var data Data
	if err := cbor.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if len(data.Categories) != len(catalog.Categories) {
		t.Errorf("expected %d categories, got %d", len(catalog.Categories), len(data.Categories))
	}
}

func TestCatalogIsACopy(t *testing.T) {
	out, err := getHandler(t.Context(), nil)
	if err != nil {
		t.Fatalf("getHandler: %v", err)
	}
	out.Body.Categories[0] = "changed"
	if catalog.Categories[0] == "changed" {
		t.Fatal("response must not alias the catalog")
	}
}
