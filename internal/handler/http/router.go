package http

import (
	"log/slog"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/augbriz/desarrollo-FE-tp/internal/service"
	"github.com/augbriz/desarrollo-FE-tp/pkg/health"
	"github.com/augbriz/desarrollo-FE-tp/pkg/middleware"
)

const serviceName = "backoffice"

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Moderation    *service.ModerationService
	Checkout      *service.CheckoutService
	Health        *health.Handler
	Inspect       middleware.TokenInspector
	DeleteLimiter *middleware.RateLimiter
	CORS          middleware.CORSConfig
	// Location is where export dates are rendered.
	Location *time.Location
	// AdminCIDRs guards /metrics and /debug/pprof.
	AdminCIDRs []string
	// Sentry enables panic reporting. sentry.Init must have been called.
	Sentry bool
	Logger *slog.Logger
}

// NewRouter creates a chi router with all backoffice routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	logger := cfg.Logger

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Recovery(logger))
	if cfg.Sentry {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())

	middleware.MountDiagnostics(r, promhttp.Handler(), cfg.AdminCIDRs, logger)

	reviews := NewReviewHandler(cfg.Moderation, cfg.Location, logger)
	checkout := NewCheckoutHandler(cfg.Checkout, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(chimw.Compress(5, "application/json"))

		// Provider redirects land here without a session.
		r.Get("/checkout/mp/result", checkout.PaymentResult)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Inspect, logger))
			r.Use(middleware.RequestLogger(logger))

			r.Route("/admin", func(r chi.Router) {
				r.Get("/reviews", reviews.Board)
				r.Get("/reviews/export", reviews.Export)
				r.With(cfg.DeleteLimiter.Handler).Delete("/reviews/{id}", reviews.Delete)
				r.Post("/session/logout", reviews.Logout)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/start", checkout.Start)
				r.Post("/simulate-success", checkout.SimulateSuccess)
				r.Get("/status", checkout.Status)
				r.Post("/mp/start", checkout.StartProvider)
				r.Get("/mp/confirm", checkout.ConfirmPayment)
			})

			r.Get("/sales/{id}", checkout.GetSale)
		})
	})

	return r
}
