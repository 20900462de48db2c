package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/service"
)

type FailureMode string

const (
	// FailOpen admits traffic when the event store is unreachable.
	FailOpen FailureMode = "fail_open"
	// FailClosed rejects traffic when the event store is unreachable.
	FailClosed FailureMode = "fail_closed"
)

// RateLimit gates every request in the chain through the access gate's rate
// pre-check. The resource scope is caller-chosen, typically a route prefix.
func RateLimit(gate service.Gate, scope string, mode FailureMode, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admitted, err := gate.CheckRate(r.Context(), ClientIP(r), scope)
			if err != nil {
				if mode == FailOpen {
					slog.WarnContext(r.Context(), "rate limit store unavailable, admitting request",
						"scope", scope,
						"mode", string(mode),
						"error", err.Error(),
					)
					next.ServeHTTP(w, r)
					return
				}
				writeRateLimitHeaders(w.Header(), limit, window)
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			if !admitted {
				writeRateLimitHeaders(w.Header(), limit, window)
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client address left by chi's RealIP middleware. An
// unparseable address yields "" and the limiter falls back to its shared
// bucket.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if net.ParseIP(host) == nil {
		return ""
	}
	return host
}

func writeRateLimitHeaders(h http.Header, limit int64, window time.Duration) {
	h.Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	h.Set("X-RateLimit-Remaining", "0")
	seconds := int(window.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	h.Set("Retry-After", fmt.Sprintf("%d", seconds))
}
