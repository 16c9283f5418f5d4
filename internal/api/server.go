// Package api serves the wallet operations over HTTP with bearer token auth.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/purse/internal/auth"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/metrics"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/Veraticus/purse/internal/transfer"
	"github.com/Veraticus/purse/internal/walletlock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the services the API is built from. Locks must be the same
// manager the transfer service uses.
type Deps struct {
	Auth      *auth.Service
	Tokens    *auth.TokenIssuer
	Ledger    *ledger.Service
	Transfers *transfer.Service
	Wallets   service.WalletStore
	Locks     *walletlock.Manager
	Metrics   *metrics.Metrics
}

// Server routes API requests to the ledger services.
type Server struct {
	auth      *auth.Service
	tokens    *auth.TokenIssuer
	ledger    *ledger.Service
	transfers *transfer.Service
	wallets   service.WalletStore
	locks     *walletlock.Manager
	metrics   *metrics.Metrics
}

// NewServer creates a server from deps.
func NewServer(d Deps) *Server {
	locks := d.Locks
	if locks == nil {
		locks = walletlock.NewManager()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		auth:      d.Auth,
		tokens:    d.Tokens,
		ledger:    d.Ledger,
		transfers: d.Transfers,
		wallets:   d.Wallets,
		locks:     locks,
		metrics:   m,
	}
}

// Router builds the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(observeRequests(s.metrics))

	r.Get("/healthz", healthzHandler)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/users", s.registerHandler)
		r.Post("/sessions", s.sessionHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireToken(s.tokens))

			r.Get("/wallet", s.walletHandler)
			r.Post("/wallet/categories", s.addCategoryHandler)
			r.Put("/wallet/budgets/{category}", s.setBudgetHandler)
			r.Post("/wallet/income", s.recordHandler(model.OperationIncome))
			r.Post("/wallet/expense", s.recordHandler(model.OperationExpense))
			r.Get("/wallet/sum", s.sumHandler)
			r.Get("/wallet/report", s.reportHandler)

			r.Post("/transfers", s.transferHandler)
		})
	})

	return r
}

// mutateWallet loads the wallet of login, applies fn and saves the result while
// holding the wallet lock. Nothing is saved when fn fails.
func (s *Server) mutateWallet(ctx context.Context, login string, fn func(*model.Wallet) error) (*model.Wallet, error) {
	unlock := s.locks.Lock(login)
	defer unlock()

	w, err := s.wallets.LoadWallet(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := s.wallets.SaveWallet(ctx, login, w); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}
	return w, nil
}

// NewHTTPServer wraps handler with the timeouts used by serve.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
