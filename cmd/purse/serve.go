package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/purse/internal/api"
	"github.com/Veraticus/purse/internal/auth"
	"github.com/Veraticus/purse/internal/certs"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wallet HTTP API",
		Long: `Serve the JSON API on api.addr (PURSE_API_ADDR).

api.jwt_secret (PURSE_API_JWT_SECRET) must be set to at least 16 characters.
Prometheus metrics are exposed on /metrics. With --tls (PURSE_API_TLS) the API is
served over HTTPS using a self-signed certificate generated on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.API.Addr = addr
			}
			if cmd.Flags().Changed("tls") {
				a.cfg.API.TLS, _ = cmd.Flags().GetBool("tls")
			}
			if err := a.cfg.ValidateAPI(); err != nil {
				return err
			}

			var tlsConfig *tls.Config
			if a.cfg.API.TLS {
				var err error
				if tlsConfig, err = certs.NewStore(a.cfg.API.CertDir).TLSConfig(); err != nil {
					return err
				}
			}

			return a.withServices(cmd, func(ctx context.Context, svc *services) error {
				server := api.NewServer(api.Deps{
					Auth:      svc.auth,
					Tokens:    auth.NewTokenIssuer(a.cfg.API.JWTSecret, a.cfg.API.TokenTTL),
					Ledger:    svc.ledger,
					Transfers: svc.transfers,
					Wallets:   svc.store,
					Locks:     svc.locks,
					Metrics:   svc.metrics,
				})
				srv := api.NewHTTPServer(a.cfg.API.Addr, server.Router())
				srv.TLSConfig = tlsConfig
				return runServer(ctx, srv)
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides api.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate kept in api.cert_dir")

	return cmd
}

// runServer serves until ctx is canceled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("API listening", "addr", srv.Addr, "tls", srv.TLSConfig != nil)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
