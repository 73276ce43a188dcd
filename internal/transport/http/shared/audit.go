package shared

import (
	"context"
	"log/slog"
	"net/http"

	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/middleware"
)

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// RecordAudit writes an audit event for a completed mutation. Failures are
// logged; the mutation has already happened.
func RecordAudit(r *http.Request, recorder AuditRecorder, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(r.Context(), user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
