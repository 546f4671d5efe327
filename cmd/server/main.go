package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/janisto/campus-market/internal/http/health"
	"github.com/janisto/campus-market/internal/http/v1/routes"
	"github.com/janisto/campus-market/internal/http/v1/upload"
	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/market/cache"
	"github.com/janisto/campus-market/internal/platform/auth"
	"github.com/janisto/campus-market/internal/platform/config"
	"github.com/janisto/campus-market/internal/platform/firebase"
	applog "github.com/janisto/campus-market/internal/platform/logging"
	appmiddleware "github.com/janisto/campus-market/internal/platform/middleware"
	"github.com/janisto/campus-market/internal/platform/respond"
	"github.com/janisto/campus-market/internal/service/favorite"
	"github.com/janisto/campus-market/internal/service/listing"
	"github.com/janisto/campus-market/internal/service/profile"
	"github.com/janisto/campus-market/internal/service/storage"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	apiBase         = "/v1"
	docsPath        = "/api-docs"
	shutdownTimeout = 10 * time.Second
	cooldownPrefix  = "campus-market:signin:"
)

// app holds what the router serves.
type app struct {
	verifier    auth.Verifier
	sessions    *auth.Sessions
	market      *market.Marketplace
	checks      map[string]health.Check
	corsOrigins []string
}

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}
	if err := run(); err != nil {
		applog.LogError(context.Background(), "server failed", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	clients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:                    cfg.ProjectID,
		GoogleApplicationCredentials: cfg.CredentialsFile,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := clients.Close(); err != nil {
			applog.LogError(context.Background(), "firebase close error", err)
		}
	}()

	store := cache.New(
		cache.WithStaleAfter(cfg.Cache.StaleAfter),
		cache.WithExpireAfter(cfg.Cache.ExpireAfter),
	)
	janitor, err := cache.StartJanitor(store, cfg.Cache.JanitorSchedule)
	if err != nil {
		return err
	}

	checks := map[string]health.Check{"firestore": firestoreCheck(clients.Firestore)}
	cooldown, rdb := newCooldown(ctx, cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	a := app{
		verifier: auth.NewFirebaseVerifier(clients.Auth),
		sessions: auth.NewSessions(newLinkSender(ctx, clients), clients.Auth, cooldown, cfg.AppURL),
		market: market.New(
			store,
			storage.NewGCSStore(clients.Storage, ""),
			profile.NewFirestoreStore(clients.Firestore),
			listing.NewFirestoreStore(clients.Firestore),
			favorite.NewFirestoreStore(clients.Firestore),
			market.WithBuckets(cfg.Buckets),
			market.WithPageSize(cfg.PageSize),
		),
		checks:      checks,
		corsOrigins: cfg.CORSOrigins,
	}

	srv := newServer(":"+cfg.Port, newRouter(a))
	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening",
			zap.String("addr", srv.Addr),
			zap.String("project", cfg.ProjectID),
			zap.String("version", Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		janitor.Stop(context.Background())
		return err
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	janitor.Stop(shutdownCtx)
	applog.LogInfo(context.Background(), "server exited")
	return nil
}

// newCooldown shares sign-in link windows through Redis when it is configured and
// reachable. Otherwise windows are kept per instance.
func newCooldown(ctx context.Context, cfg config.Redis) (auth.Cooldown, *redis.Client) {
	if cfg.Addr == "" {
		return auth.NewMemoryCooldown(time.Now), nil
	}
	rdb, err := auth.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		applog.LogWarn(ctx, "redis unavailable, using in-memory sign-in cooldown",
			zap.String("addr", cfg.Addr), zap.Error(err))
		return auth.NewMemoryCooldown(time.Now), nil
	}
	return auth.NewRedisCooldown(rdb, cooldownPrefix), rdb
}

// newLinkSender emails sign-in links through Firebase, or only generates them when the
// auth emulator is in use.
func newLinkSender(ctx context.Context, clients *firebase.Clients) auth.LinkSender {
	if clients.IdentityToolkit == nil {
		applog.LogWarn(ctx, "auth emulator in use, sign-in links are not emailed")
		return auth.EmulatorSender{Links: clients.Auth}
	}
	return auth.NewOOBSender(clients.IdentityToolkit)
}

func firestoreCheck(client *firestore.Client) health.Check {
	return func(ctx context.Context) error {
		_, err := client.Collections(ctx).Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		return err
	}
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

func newRouter(a app) chi.Router {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(apiBase+docsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(a.corsOrigins...),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		chimiddleware.RealIP,
		// Listing forms carry up to five base64 images.
		chimiddleware.RequestSize(upload.MaxBodyBytes),
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)
	router.Get("/health", health.Handler(a.checks))

	router.Route(apiBase, func(r chi.Router) {
		cfg := huma.DefaultConfig("Campus Market API", Version)
		cfg.DocsPath = docsPath
		cfg.Servers = []*huma.Server{{URL: apiBase}}
		cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			"bearerAuth": {
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "Firebase ID token",
			},
		}
		api := humachi.New(r, cfg)

		// Add CBOR content type to OpenAPI requests and responses
		api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, addCBORContent)

		routes.Register(api, a.verifier, a.sessions, a.market)
	})
	return router
}

func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}
