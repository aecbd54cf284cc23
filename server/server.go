// Package server is the JSON HTTP presentation layer over the ledger
// engine. It owns authentication, request logging and error-to-status
// mapping; all money and share semantics live in the ledger package.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsim/papertrader/config"
	"github.com/finsim/papertrader/ledger"
	"github.com/finsim/papertrader/quote"
)

// Server wraps the HTTP server and its collaborators.
type Server struct {
	engine      *ledger.Engine
	store       ledger.Store
	oracle      quote.Oracle
	logger      zerolog.Logger
	jwtSecret   []byte
	tokenExpiry time.Duration
	openingCash string

	server *http.Server
}

// New creates the HTTP REST API server.
func New(cfg *config.Config, engine *ledger.Engine, store ledger.Store, oracle quote.Oracle, logger zerolog.Logger) (*Server, error) {
	expiry, err := cfg.Auth.ParseTokenExpiry()
	if err != nil {
		return nil, err
	}

	s := &Server{
		engine:      engine,
		store:       store,
		oracle:      oracle,
		logger:      logger,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
		tokenExpiry: expiry,
		openingCash: cfg.Account.OpeningCash,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.applyMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the HTTP handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", s.handleRegister)
	mux.HandleFunc("/api/login", s.handleLogin)

	mux.HandleFunc("/api/quote", s.authed(s.handleQuote))
	mux.HandleFunc("/api/buy", s.authed(s.handleBuy))
	mux.HandleFunc("/api/sell", s.authed(s.handleSell))
	mux.HandleFunc("/api/portfolio", s.authed(s.handlePortfolio))
	mux.HandleFunc("/api/history", s.authed(s.handleHistory))

	mux.HandleFunc("/api/health", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
