package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/history"
	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/invoicing"
	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/observability"
	"github.com/odyssey-erp/storeledger/internal/orders"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
	"github.com/odyssey-erp/storeledger/internal/shared"
	"github.com/odyssey-erp/storeledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Services    *Services
	Metrics     *observability.Metrics
	Tokens      *shared.TokenChecker
	Idempotency IdempotencyKeys
	// JobHandler is optional; without it /jobs is not mounted.
	JobHandler *jobs.Handler
	// AccessLog enables chi's request logger.
	AccessLog bool
}

// NewRouter constructs the chi.Router serving every ledger operation.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      logger,
		Config:      params.Config,
		Metrics:     params.Metrics,
		Tokens:      params.Tokens,
		Idempotency: params.Idempotency,
	}) {
		r.Use(mw)
	}
	if params.AccessLog {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	svc := params.Services
	r.Route("/products", catalog.NewHandler(logger, svc.Catalog).MountRoutes)
	r.Route("/customers", parties.NewHandler(logger, svc.Parties, parties.KindCustomer).MountRoutes)
	r.Route("/suppliers", parties.NewHandler(logger, svc.Parties, parties.KindSupplier).MountRoutes)
	r.Route("/invoices", invoicing.NewHandler(logger, svc.Invoices).MountRoutes)
	r.Route("/customer-orders", orders.NewHandler(logger, svc.Orders, parties.KindCustomer).MountRoutes)
	r.Route("/supplier-orders", orders.NewHandler(logger, svc.Orders, parties.KindSupplier).MountRoutes)

	ledgerHandler := ledger.NewHandler(logger, svc.Ledger)
	r.Route("/maal", ledgerHandler.MountMaalRoutes)
	r.Route("/transactions", ledgerHandler.MountJamaRoutes)

	r.Route("/parties", history.NewHandler(logger, svc.History).MountRoutes)
	r.Route("/integrity", integrity.NewHandler(logger, svc.Checker).MountRoutes)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusNotFound, httpx.Result{Status: httpx.StatusNotFound, Message: "no such operation"})
	})
	return r
}
