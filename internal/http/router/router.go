package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/inkpress/content-platform/internal/http/handler"
	"github.com/inkpress/content-platform/internal/http/middleware"
	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/service"
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	DeviceHandler  *handler.DeviceHandler
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler

	Gate               service.Gate
	RateLimitThreshold int64
	RateLimitWindow    time.Duration
	RateLimitMode      middleware.FailureMode

	EnableOTelHTTP bool
}

// NewRouter wires the full HTTP surface. Every route passes the rate
// pre-check under a route-prefix scope; protected routes additionally pass
// the stateless session check.
func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))

	mode := dep.RateLimitMode
	if mode == "" {
		mode = middleware.FailClosed
	}
	limit := func(scope string) func(http.Handler) http.Handler {
		return middleware.RateLimit(dep.Gate, scope, mode, dep.RateLimitThreshold, dep.RateLimitWindow)
	}
	authed := middleware.Auth(dep.Gate)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(limit("auth"))
			r.Post("/registration", dep.AuthHandler.Register)
			r.Post("/registration-confirmation", dep.AuthHandler.RegistrationConfirmation)
			r.Post("/login", dep.AuthHandler.Login)
			r.Post("/refresh-token", dep.AuthHandler.Refresh)
			r.Post("/logout", dep.AuthHandler.Logout)
		})

		r.Route("/security", func(r chi.Router) {
			r.Use(limit("security"))
			r.Get("/devices", dep.DeviceHandler.List)
			r.Delete("/devices", dep.DeviceHandler.RevokeOthers)
			r.Delete("/devices/{deviceId}", dep.DeviceHandler.Revoke)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Use(limit("posts"))
			r.Get("/", dep.PostHandler.List)
			r.Get("/{postId}", dep.PostHandler.Get)
			r.Get("/{postId}/comments", dep.CommentHandler.ListForPost)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Post("/", dep.PostHandler.Create)
				r.Put("/{postId}", dep.PostHandler.Update)
				r.Delete("/{postId}", dep.PostHandler.Delete)
				r.Post("/{postId}/comments", dep.CommentHandler.Create)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(limit("comments"))
			r.Get("/{commentId}", dep.CommentHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Put("/{commentId}", dep.CommentHandler.Update)
				r.Delete("/{commentId}", dep.CommentHandler.Delete)
			})
		})

		r.With(limit("users"), authed).Get("/users/me", dep.UserHandler.Me)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
