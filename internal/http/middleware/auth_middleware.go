package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/observability"
	"github.com/inkpress/content-platform/internal/service"
)

type contextKey string

const UserIDContextKey contextKey = "user_id"

// Auth verifies the bearer access token through the gate and injects the
// user id into the request context. The check is stateless: the session
// store is only consulted at rotation time.
func Auth(gate service.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				raw = strings.TrimSpace(auth[7:])
			}
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "none")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			userID, err := gate.CheckSession(raw)
			if err != nil {
				result := "invalid"
				if errors.Is(err, service.ErrTokenExpired) {
					result = "expired"
				}
				observability.RecordAccessTokenValidation(r.Context(), result, "bearer")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid", "bearer")
			ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDContextKey).(string)
	return id, ok
}
