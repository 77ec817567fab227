package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hisab-pos/hisab/internal/auth"
	"github.com/hisab-pos/hisab/internal/billing"
	"github.com/hisab-pos/hisab/internal/customers"
	"github.com/hisab-pos/hisab/internal/employees"
	"github.com/hisab-pos/hisab/internal/observability"
	"github.com/hisab-pos/hisab/internal/products"
	"github.com/hisab-pos/hisab/internal/settings"
	"github.com/hisab-pos/hisab/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuthMiddleware   func(http.Handler) http.Handler
	BillingHandler   *billing.Handler
	CustomersHandler *customers.Handler
	ProductsHandler  *products.Handler
	EmployeesHandler *employees.Handler
	SettingsHandler  *settings.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware)

		r.Route("/bills", params.BillingHandler.MountRoutes)
		r.Get("/next-bill-number", params.BillingHandler.NextNumber)

		if params.CustomersHandler != nil {
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.EmployeesHandler != nil {
			r.Route("/employees", params.EmployeesHandler.MountRoutes)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountRoutes)
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
