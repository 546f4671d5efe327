package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
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
	links    *auth.MockLinkClient
	profiles *profilesvc.MockProfileService
	mp       *market.Marketplace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		links:    &auth.MockLinkClient{},
		profiles: profilesvc.NewMockProfileService(),
	}
	f.mp = market.New(cache.New(), storage.NewMockStorageService(), f.profiles,
		listing.NewMockListingService(), favorite.NewMockFavoriteService())
	sessions := auth.NewSessions(f.links, f.links, auth.NewMemoryCooldown(time.Now), "https://market.campus.edu")

	router := chi.NewRouter()
	router.Use(appmiddleware.RequestID(), applog.RequestLogger())
	api := humachi.New(router, huma.DefaultConfig("SessionTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, &auth.MockVerifier{User: auth.TestUser()}))
	Register(api, sessions, f.mp)
	f.router = router
	return f
}

func (f *fixture) do(method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer valid-token")
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestRequestMagicLink(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/auth/magic-link", `{"email":"Ada@Campus.edu"}`, false)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var sent MagicLinkSent
	if err := json.Unmarshal(resp.Body.Bytes(), &sent); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if sent.RedirectURL != "https://market.campus.edu/auth/callback" {
		t.Errorf("unexpected redirect %s", sent.RedirectURL)
	}
	if f.links.SentLinks() != 1 {
		t.Fatalf("expected one link issued, got %d", f.links.SentLinks())
	}
}

func TestRequestMagicLinkCooldown(t *testing.T) {
	f := newFixture(t)
	_ = f.do(http.MethodPost, "/auth/magic-link", `{"email":"ada@campus.edu"}`, false)

	resp := f.do(http.MethodPost, "/auth/magic-link", `{"email":"ada@campus.edu"}`, false)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", resp.Code, resp.Body.String())
	}
	retry, err := strconv.Atoi(resp.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 30 {
		t.Fatalf("unexpected Retry-After %q", resp.Header().Get("Retry-After"))
	}
	if f.links.SentLinks() != 1 {
		t.Fatal("no second link may be issued during the cooldown")
	}
}

func TestRequestMagicLinkInvalidEmail(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/auth/magic-link", `{"email":"not-an-email"}`, false)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Location != "body.email" {
		t.Fatalf("unexpected problem %+v", problem)
	}
}

func TestRequestMagicLinkProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.links.LinkErr = errors.New("quota exceeded")

	if resp := f.do(http.MethodPost, "/auth/magic-link", `{"email":"ada@campus.edu"}`, false); resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", resp.Code, resp.Body.String())
	}

	f.links.LinkErr = nil
	if resp := f.do(http.MethodPost, "/auth/magic-link", `{"email":"ada@campus.edu"}`, false); resp.Code != http.StatusAccepted {
		t.Fatalf("expected the retry accepted, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSessionRequiresProfileSetup(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodGet, "/session", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var s Session
	if err := json.Unmarshal(resp.Body.Bytes(), &s); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if !s.ProfileSetupRequired || s.Profile != nil || s.UID != "test-user-123" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestSessionWithProfile(t *testing.T) {
	f := newFixture(t)
	_, err := f.profiles.Create(context.Background(), "test-user-123", profilesvc.CreateParams{
		Email:       "test@campus.edu",
		FullName:    "Ada Obi",
		PhoneNumber: "+2348012345678",
		Role:        "STAFF",
		Department:  "Department of Physics",
		Skills:      []string{"Research", "Tutoring"},
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	resp := f.do(http.MethodGet, "/session", "", true)
	var s Session
	if err := json.Unmarshal(resp.Body.Bytes(), &s); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if s.ProfileSetupRequired || s.Profile == nil || s.Profile.FullName != "Ada Obi" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestSessionFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.profiles.FailNext("Get", errors.New("firestore unavailable"))

	resp := f.do(http.MethodGet, "/session", "", true)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Retry-After") != "5" {
		t.Fatalf("expected Retry-After 5, got %q", resp.Header().Get("Retry-After"))
	}
}

func TestSignOutRevokesAndClearsCache(t *testing.T) {
	f := newFixture(t)
	_ = f.do(http.MethodGet, "/session", "", true)
	if _, ok := f.mp.Store().Peek(cache.NewKey(cache.ResourceProfile, "test-user-123")); !ok {
		t.Fatal("expected the profile read cached")
	}

	resp := f.do(http.MethodPost, "/auth/sign-out", "", true)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(f.links.Revoked) != 1 || f.links.Revoked[0] != "test-user-123" {
		t.Fatalf("expected tokens revoked, got %v", f.links.Revoked)
	}
	if f.mp.Store().Len() != 0 {
		t.Fatalf("expected user cache cleared, %d entries left", f.mp.Store().Len())
	}
}

func TestSignOutRequiresAuth(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(http.MethodPost, "/auth/sign-out", "", false); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
