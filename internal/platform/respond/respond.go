package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"
	schemaLink             = `</schemas/ErrorModel.json>; rel="describedBy"`
)

// WriteProblem renders an RFC 9457 problem document in JSON or CBOR depending on Accept.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string, errs ...*huma.ErrorDetail) {
	problem := huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Errors: errs,
	}
	if status >= http.StatusInternalServerError {
		applog.LogError(r.Context(), detail, nil, zap.Int("status", status))
	} else {
		applog.LogWarn(r.Context(), detail, zap.Int("status", status))
	}

	h := w.Header()
	h.Add("Vary", "Accept")
	h.Set("Link", schemaLink)

	var (
		body []byte
		err  error
	)
	if acceptsCBOR(r.Header.Get("Accept")) {
		h.Set("Content-Type", contentTypeProblemCBOR)
		body, err = cbor.Marshal(problem)
	} else {
		h.Set("Content-Type", contentTypeProblemJSON)
		body, err = json.Marshal(problem)
	}
	if err != nil {
		applog.LogError(r.Context(), "failed to encode problem", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// NotFoundHandler emits a 404 problem document.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, "resource not found")
	}
}

// MethodNotAllowedHandler emits a 405 problem document with an Allow header.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Recoverer converts panics into 500 problem documents.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				applog.LogError(r.Context(), "panic recovered", fmt.Errorf("%v", rec),
					zap.ByteString("stack", debug.Stack()))
				if tw.wroteHeader {
					return
				}
				WriteProblem(tw, r, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (t *trackingWriter) WriteHeader(status int) {
	t.wroteHeader = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wroteHeader = true
	return t.ResponseWriter.Write(b)
}

func (t *trackingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}

// acceptsCBOR reports whether the highest-weighted supported media type in accept is CBOR.
// Ties go to the more specific problem+ type, then to JSON.
func acceptsCBOR(accept string) bool {
	bestCBOR, bestJSON := -1.0, -1.0
	specificCBOR, specificJSON := false, false
	for _, part := range strings.Split(accept, ",") {
		mediaType, q := parseMediaRange(part)
		if q <= 0 {
			continue
		}
		switch mediaType {
		case "application/cbor", contentTypeProblemCBOR:
			problem := mediaType == contentTypeProblemCBOR
			if q > bestCBOR || (q == bestCBOR && problem) {
				bestCBOR, specificCBOR = q, problem
			}
		case "application/json", contentTypeProblemJSON, "*/*", "application/*":
			problem := mediaType == contentTypeProblemJSON
			if q > bestJSON || (q == bestJSON && problem) {
				bestJSON, specificJSON = q, problem
			}
		}
	}
	if bestCBOR < 0 {
		return false
	}
	if bestCBOR != bestJSON {
		return bestCBOR > bestJSON
	}
	return specificCBOR && !specificJSON
}

func parseMediaRange(part string) (string, float64) {
	fields := strings.Split(part, ";")
	mediaType := strings.ToLower(strings.TrimSpace(fields[0]))
	q := 1.0
	for _, param := range fields[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || strings.TrimSpace(key) != "q" {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return mediaType, 1.0
		}
		q = parsed
	}
	return mediaType, q
}

func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}
	routePath := rctx.RoutePath
	if routePath == "" {
		routePath = r.URL.Path
		if r.URL.RawPath != "" {
			routePath = r.URL.RawPath
		}
		if routePath == "" {
			routePath = "/"
		}
	}
	var allowed []string
	for _, method := range []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	} {
		if rctx.Routes.Match(chi.NewRouteContext(), method, routePath) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}
