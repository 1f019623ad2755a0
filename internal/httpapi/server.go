// Package httpapi wires the HTTP surface of the spendwell service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mfadel/spendwell/internal/service/stats"
	"github.com/mfadel/spendwell/internal/service/transaction"
	"github.com/mfadel/spendwell/internal/service/wallet"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	wallets      wallet.Service
	transactions transaction.Service
	stats        stats.Service
	// store is probed for readiness when it implements Ready(ctx) error.
	store any
	log   *slog.Logger
	rt    *chi.Mux
}

// New constructs the HTTP server with routes and middleware. The logger is
// used by basic request/response logging and panic recovery. store is the
// backing store, probed by /readyz when it supports connectivity checks.
func New(wallets wallet.Service, transactions transaction.Service, st stats.Service, store any, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		wallets:      wallets,
		transactions: transactions,
		stats:        st,
		store:        store,
		rt:           r,
		log:          logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Wallets (v1)
	s.rt.Post("/v1/wallets", s.postWallet)
	s.rt.Get("/v1/wallets", s.listWallets)
	s.rt.Get("/v1/wallets/{id}", s.getWallet)
	s.rt.Patch("/v1/wallets/{id}", s.updateWallet)
	s.rt.Delete("/v1/wallets/{id}", s.deleteWallet)
	// Transactions (v1). POST creates or, when an id is present in the
	// payload, updates in place (mirrors the mobile client contract).
	s.rt.Post("/v1/transactions", s.postTransaction)
	s.rt.Get("/v1/transactions/{id}", s.getTransaction)
	s.rt.Delete("/v1/transactions/{id}", s.deleteTransaction)
	// Stats (v1)
	s.rt.Get("/v1/stats/weekly", s.statsWindow(statsWeekly))
	s.rt.Get("/v1/stats/monthly", s.statsWindow(statsMonthly))
	s.rt.Get("/v1/stats/yearly", s.statsWindow(statsYearly))
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Get("/metrics", metricsHandler().ServeHTTP)
}
