package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mietwerk/rentledger/internal/adapter/http/handler"
	"github.com/mietwerk/rentledger/internal/adapter/http/middleware"
	"github.com/mietwerk/rentledger/internal/infrastructure/auth"
	"github.com/mietwerk/rentledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ImportHandler      *handler.ImportHandler
	TransactionHandler *handler.TransactionHandler
	ContractHandler    *handler.ContractHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	JWTManager         *auth.JWTManager
	RateLimiter        *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Imports
		r.Route("/imports", func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.RequireWriter)
			}

			r.Post("/preview", cfg.ImportHandler.Preview)
			r.Post("/", cfg.ImportHandler.Create)
			r.Post("/undo", cfg.ImportHandler.Undo)
		})

		// Accounts
		r.Get("/accounts/{id}/transactions", cfg.TransactionHandler.ListByAccount)

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Get("/{id}/matches", cfg.TransactionHandler.Matches)

			writer := r
			if cfg.JWTManager != nil {
				writer = r.With(middleware.RequireWriter)
			}

			writer.Post("/{id}/match", cfg.TransactionHandler.ConfirmMatch)
			writer.Post("/{id}/allocations/propose", cfg.TransactionHandler.ProposeAllocations)
			writer.Post("/{id}/reconcile", cfg.TransactionHandler.Reconcile)
		})

		// Contracts
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", cfg.ContractHandler.List)
			r.Get("/{id}", cfg.ContractHandler.Get)
			r.Get("/{id}/financial-items", cfg.ContractHandler.ListFinancialItems)
		})
	})

	return r
}
