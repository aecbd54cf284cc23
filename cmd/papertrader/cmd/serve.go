package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsim/papertrader/pkg/logging"
	"github.com/finsim/papertrader/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON HTTP API server",
	Long: `Start the papertrader REST API.

Endpoints:
  POST /api/register   create an account, returns a bearer token
  POST /api/login      exchange credentials for a bearer token
  GET  /api/quote      look up a symbol (authenticated)
  POST /api/buy        buy shares (authenticated)
  POST /api/sell       sell shares (authenticated)
  GET  /api/portfolio  cash + holdings valued at current prices
  GET  /api/history    past transactions, oldest first

Example:
  papertrader serve -f config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, engine, st, oracle, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required to serve")
	}

	logger := logging.New(cfg.LogLevel)

	srv, err := server.New(cfg, engine, st, oracle, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
