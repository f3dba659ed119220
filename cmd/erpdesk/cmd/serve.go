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

	"github.com/jmcleod/erpdesk/api"
	"github.com/jmcleod/erpdesk/erp"
	"github.com/jmcleod/erpdesk/internal/obs"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo ERP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		store, closeStore, err := openStore(ctx, cfg.Store, nsServer)
		if err != nil {
			return fmt.Errorf("opening audit store: %w", err)
		}
		defer closeStore()

		proxies, _ := cfg.Server.Proxies()
		opts := []api.Option{
			api.WithLogger(logger),
			api.WithMetrics(obs.NewMetrics()),
			api.WithAuditStore(store),
			api.WithTrustedProxies(proxies...),
			api.WithRequestRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		}
		if cfg.Server.AlertWebhookURL != "" {
			wh := api.NewAlertWebhook(cfg.Server.AlertWebhookURL, cfg.Server.AlertWebhookAuth, logger)
			defer wh.Close()
			opts = append(opts, api.WithAlertFunc(wh.Notify))
		}

		a := api.New(erp.NewCatalog(time.Now()), opts...)
		n, err := a.RestoreAudit(ctx)
		if err != nil {
			return err
		}
		cliLogger().Info("audit trail restored", "entries", n)

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           a.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		sweep := time.NewTicker(10 * time.Minute)
		defer sweep.Stop()

		printBanner(cmd.OutOrStdout())
		cliLogger().Info("server listening", "port", cfg.Server.Port, "store", cfg.Store.Backend)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		for {
			select {
			case <-sweep.C:
				a.Sweep()
			case sig := <-quit:
				cliLogger().Info("shutting down", "signal", sig.String())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				return nil
			case err := <-done:
				return err
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on (overrides ERPDESK_SERVER_PORT)")
}
