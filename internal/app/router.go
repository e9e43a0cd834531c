package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/commission"
	"github.com/reefdesk/reefdesk/internal/divepkg"
	"github.com/reefdesk/reefdesk/internal/invoicing"
	"github.com/reefdesk/reefdesk/internal/observability"
	"github.com/reefdesk/reefdesk/internal/packages"
	"github.com/reefdesk/reefdesk/internal/pricing"
	"github.com/reefdesk/reefdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	BookingHandler    *booking.Handler
	PricingHandler    *pricing.Handler
	PackagesHandler   *packages.Handler
	DivePkgHandler    *divepkg.Handler
	CommissionHandler *commission.Handler
	InvoicingHandler  *invoicing.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with ReefDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	// Liveness and metrics sit outside the tenant-scoped stack.
	r.Group(func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
		if params.JobsHandler != nil {
			params.JobsHandler.MountRoutes(r)
		}
	})

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:  params.Logger,
			Config:  params.Config,
			Metrics: params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		params.BookingHandler.MountRoutes(r)
		params.PricingHandler.MountRoutes(r)
		params.PackagesHandler.MountRoutes(r)
		params.DivePkgHandler.MountRoutes(r)
		params.CommissionHandler.MountRoutes(r)
		params.InvoicingHandler.MountRoutes(r)
	})

	return r
}
