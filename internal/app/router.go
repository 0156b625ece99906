package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Kashan-amd/modis/internal/accounts"
	"github.com/Kashan-amd/modis/internal/balances"
	"github.com/Kashan-amd/modis/internal/ledger"
	"github.com/Kashan-amd/modis/internal/organizations"
	"github.com/Kashan-amd/modis/internal/pettycash"
	"github.com/Kashan-amd/modis/internal/projects"
	"github.com/Kashan-amd/modis/internal/reports"
	"github.com/Kashan-amd/modis/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	OrganizationsHandler *organizations.Handler
	AccountsHandler      *accounts.Handler
	LedgerHandler        *ledger.Handler
	BalancesHandler      *balances.Handler
	PettyCashHandler     *pettycash.Handler
	ProjectsHandler      *projects.Handler
	ReportsHandler       *reports.Handler
	JobsHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.OrganizationsHandler != nil {
			params.OrganizationsHandler.MountRoutes(r)
		}
		if params.AccountsHandler != nil {
			params.AccountsHandler.MountRoutes(r)
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
		if params.BalancesHandler != nil {
			params.BalancesHandler.MountRoutes(r)
		}
		if params.PettyCashHandler != nil {
			params.PettyCashHandler.MountRoutes(r)
		}
		if params.ProjectsHandler != nil {
			params.ProjectsHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r)
		}
		if params.JobsHandler != nil {
			params.JobsHandler.MountRoutes(r)
		}
	})

	return r
}
