package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/handlers"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/middleware"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// Dependencies groups what the route table needs
type Dependencies struct {
	AccountHandler    *handlers.AccountHandler
	AdminHandler      *handlers.AdminHandler
	PaymentHandler    *handlers.PaymentHandler
	ExtractionHandler *handlers.ExtractionHandler
	HealthHandler     *handlers.HealthHandler
	TokenManager      *auth.TokenManager
	Metrics           *metrics.Metrics
	IPResolver        *pkghttp.IPResolver

	AuthRateLimit    middleware.RateLimitConfig
	UserRateLimit    middleware.RateLimitConfig
	ExtractRateLimit middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteMethodNotAllowed(w)
	})

	router.Get("/health", deps.HealthHandler.Check)
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate(deps.TokenManager))

		// Credential endpoints share one per-IP budget
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(deps.AuthRateLimit, deps.IPResolver))
			r.Post("/signup", deps.AccountHandler.Signup)
			r.Post("/signin", deps.AccountHandler.Signin)
			r.Post("/admin-login", deps.AdminHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Get("/me", deps.AccountHandler.Me)
			r.With(middleware.RateLimitByUser(deps.UserRateLimit, deps.IPResolver)).
				Post("/payment-unlock", deps.PaymentHandler.Unlock)
			r.With(middleware.RateLimitByUser(deps.ExtractRateLimit, deps.IPResolver)).
				Post("/extract", deps.ExtractionHandler.Extract)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/admin-users", deps.AdminHandler.ListUsers)
			r.Post("/admin-mutate", deps.AdminHandler.Mutate)
		})
	})
}
