package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aegis-iam/aegis/internal/assignments"
	"github.com/aegis-iam/aegis/internal/audit"
	"github.com/aegis-iam/aegis/internal/authz"
	"github.com/aegis-iam/aegis/internal/catalog"
	"github.com/aegis-iam/aegis/internal/identity"
	"github.com/aegis-iam/aegis/internal/observability"
	"github.com/aegis-iam/aegis/internal/roles"
	"github.com/aegis-iam/aegis/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Identity           identity.Middleware
	Authz              authz.Middleware
	CatalogHandler     *catalog.Handler
	RolesHandler       *roles.Handler
	AssignmentsHandler *assignments.Handler
	AuthzHandler       *authz.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with engine defaults.
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

	r.Group(func(r chi.Router) {
		r.Use(params.Identity.Authenticate)
		r.Use(params.Identity.RequireTenant)

		if params.CatalogHandler != nil {
			r.Route("/permissions", params.CatalogHandler.MountRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.AssignmentsHandler != nil {
			r.Route("/users", params.AssignmentsHandler.MountRoutes)
		}
		if params.AuthzHandler != nil {
			r.Route("/authz", params.AuthzHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", func(r chi.Router) {
				r.Use(params.Authz.RequireAny("audit.view"))
				params.AuditHandler.MountRoutes(r)
			})
		}
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.Authz.RequireAll("jobs.trigger"))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
