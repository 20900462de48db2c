package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit emits a structured log record for a security-relevant action.
// Events are named subsystem.action, for example "auth.login" or
// "devices.revoke". The request id ties the record back to the access log
// and the error envelope of the same request.
func Audit(r *http.Request, event string, attrs ...any) {
	fields := make([]any, 0, 8+len(attrs))
	fields = append(fields,
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
	)
	fields = append(fields, attrs...)
	slog.InfoContext(r.Context(), "audit", fields...)
}
