package logging

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// version-traceid-parentid-flags, e.g. 00-ab42124a3c573678d4d8b21ba52df3bf-d21f7bc17caa5aba-01
var traceparentRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

var projectID = sync.OnceValue(func() string {
	return firstNonEmpty(
		os.Getenv("FIREBASE_PROJECT_ID"),
		os.Getenv("GOOGLE_CLOUD_PROJECT"),
	)
})

type traceparent struct {
	traceID string
	spanID  string
	sampled bool
}

func parseTraceparent(header string) (traceparent, bool) {
	m := traceparentRe.FindStringSubmatch(header)
	if m == nil {
		return traceparent{}, false
	}
	return traceparent{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

func resolveProjectID() string {
	return projectID()
}

// traceResource is the Cloud Trace resource name of header, or "" when either input is
// unusable.
func traceResource(header, project string) string {
	tp, ok := parseTraceparent(header)
	if !ok || project == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/traces/%s", project, tp.traceID)
}

func traceFields(header, project string) []zap.Field {
	resource := traceResource(header, project)
	if resource == "" {
		return nil
	}
	tp, _ := parseTraceparent(header)
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", resource),
		zap.String("logging.googleapis.com/spanId", tp.spanID),
		zap.Bool("logging.googleapis.com/trace_sampled", tp.sampled),
	}
}

func loggerWithTrace(base *zap.Logger, header, project, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := traceFields(header, project)
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
