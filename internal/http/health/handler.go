// Package health serves the liveness and dependency check endpoint.
package health

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// Response is the payload for the health endpoint.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns the health check endpoint. It answers 503 when any check fails.
func Handler(checks map[string]Check) http.HandlerFunc {
	names := slices.Sorted(maps.Keys(checks))
	return func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Status: "healthy"}
		code := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				applog.LogWarn(r.Context(), "health check failed", zap.String("check", name), zap.Error(err))
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
