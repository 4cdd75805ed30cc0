package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bcnelson/recipe-api/internal/api/handler"
	"github.com/bcnelson/recipe-api/internal/api/middleware"
	"github.com/bcnelson/recipe-api/internal/ratelimit"
	"github.com/bcnelson/recipe-api/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	Users  *service.UserService
	Auth   *service.AuthService
	Tags   *service.TagService
	Logger *slog.Logger

	// Limiter throttles the credential endpoints per client IP. Nil disables it.
	Limiter *ratelimit.KeyedRateLimiter
	// TrustProxy rewrites the client address from proxy headers. Leave it
	// off unless a reverse proxy sets those headers.
	TrustProxy bool
	// CORSAllowedOrigins enables CORS when non-empty.
	CORSAllowedOrigins []string
	// OIDC serves the identity provider login. Nil disables it.
	OIDC *handler.OIDCHandler
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logging(deps.Logger))
	r.Use(chimw.Recoverer)
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.MethodNotAllowed(handler.MethodNotAllowed)
	r.NotFound(handler.NotFound)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	userHandler := handler.NewUserHandler(deps.Users, deps.Auth, deps.Logger)
	requireToken := middleware.Auth(deps.Auth, deps.Logger)

	r.Route("/user", func(r chi.Router) {
		// Credential endpoints (no auth, rate limited)
		r.Group(func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(middleware.RateLimit(deps.Limiter, time.Second))
			}
			r.Post("/create", userHandler.Create)
			r.Post("/token", userHandler.Token)
		})

		r.Get("/oidc/login", deps.OIDC.Login)
		r.Get("/oidc/callback", deps.OIDC.Callback)

		r.Group(func(r chi.Router) {
			r.Use(requireToken)
			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.Update)
			r.Put("/me", userHandler.Update)
		})
	})

	r.Route("/recipe", func(r chi.Router) {
		r.Use(requireToken)
		mountListCreate(r, "/tags", handler.NewTagHandler(deps.Tags, deps.Logger))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireToken)
		r.Use(middleware.RequireStaff)
		r.Get("/users", handler.NewAdminHandler(deps.Users, deps.Logger).ListUsers)
	})

	return r
}

// mountListCreate routes GET and POST on pattern to a collection handler.
func mountListCreate(r chi.Router, pattern string, h handler.ListCreator) {
	r.Get(pattern, h.List)
	r.Post(pattern, h.Create)
}
