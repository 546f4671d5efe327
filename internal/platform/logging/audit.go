package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// LogAuditEvent logs a structured audit event for a write against the marketplace backend.
//
// Args:
//   - action: the write performed ("create", "update", "delete", "upload", "favorite", ...)
//   - userID: the acting user (auth UID, which is also the profile ID)
//   - resourceType: "profile", "listing", "favorite" or "object"
//   - resourceID: ID of the affected record or object key
//   - result: ResultSuccess or ResultFailure
//   - details: optional extra fields; never include raw error text from the backend
func LogAuditEvent(
	ctx context.Context,
	action, userID, resourceType, resourceID, result string,
	details map[string]any,
) {
	LoggerFromContext(ctx).Info("Audit event",
		zap.String("audit.action", action),
		zap.String("audit.user_id", userID),
		zap.String("audit.resource_type", resourceType),
		zap.String("audit.resource_id", resourceID),
		zap.String("audit.result", result),
		zap.Any("audit.details", details),
	)
}

// AuditOutcome logs success when err is nil and failure with the given category otherwise.
func AuditOutcome(ctx context.Context, action, userID, resourceType, resourceID string, err error, category func(error) string) {
	if err == nil {
		LogAuditEvent(ctx, action, userID, resourceType, resourceID, ResultSuccess, nil)
		return
	}
	LogAuditEvent(ctx, action, userID, resourceType, resourceID, ResultFailure,
		map[string]any{"error": category(err)})
}
