package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ronnie012/assured-life-server/internal/http/handlers"
	"github.com/ronnie012/assured-life-server/internal/infra"
	"github.com/ronnie012/assured-life-server/internal/infra/geoip"
	"github.com/ronnie012/assured-life-server/internal/middleware"
)

// NewRouter assembles the HTTP surface under /v1. The webhook sits outside
// the session auth group: the gateway authenticates with an HMAC signature,
// not a token.
func NewRouter(app *handlers.App, cfg *infra.Config, resolver geoip.CountryResolver) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.Locale(resolver),
	)

	// Serve locally stored claim documents when no object storage is
	// configured.
	if cfg.DocumentBucket == "" && cfg.DocumentLocalPath != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.DocumentLocalPath)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		// Public: browsing and pricing happen before sign-in.
		r.Post("/auth/verify", app.AuthVerify)
		r.Post("/quotes/estimate", app.QuoteEstimate)
		r.Get("/policies", app.ListPolicies)
		r.Get("/policies/popular", app.ListPopularPolicies)
		r.Get("/policies/{id}", app.GetPolicy)
		r.Post("/payments/webhook", app.PaymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.JWTSecret))

			r.Get("/me", app.Me)

			r.Route("/applications", func(r chi.Router) {
				r.Post("/", app.SubmitApplication)
				r.Get("/", app.ListApplications)
				r.Get("/{id}", app.GetApplication)
				r.Put("/{id}/assign-agent", app.AssignAgent)
				r.Put("/{id}/status", app.DecideApplication)
			})

			r.Route("/claims", func(r chi.Router) {
				r.Post("/", app.FileClaim)
				r.Get("/", app.ListClaims)
				r.Put("/{id}/status", app.DecideClaim)
			})

			r.Post("/policies", app.CreatePolicy)
			r.Put("/policies/{id}", app.UpdatePolicy)
			r.Delete("/policies/{id}", app.DeletePolicy)

			r.Get("/users", app.ListUsers)
			r.Put("/users/{id}/role", app.UpdateUserRole)

			r.Get("/agents", app.ListAgents)
			r.Route("/agents/applications", func(r chi.Router) {
				r.Post("/", app.ApplyForAgent)
				r.Get("/", app.ListAgentApplications)
				r.Put("/{id}/approve", app.ApproveAgentApplication)
				r.Put("/{id}/reject", app.RejectAgentApplication)
			})

			r.Get("/transactions", app.ListTransactions)
			r.Get("/admin/dashboard", app.DashboardSummary)
		})
	})

	return r
}
