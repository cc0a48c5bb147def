package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"stakepool/config"
	"stakepool/gateway/middleware"
	"stakepool/gateway/routes"
)

const (
	gaugeRefreshInterval = 15 * time.Second
	shutdownGrace        = 10 * time.Second
)

func newQueryHandler(h *host, cfg *config.Config) http.Handler {
	return routes.New(routes.Config{
		Ledger:        h,
		RateLimiter:   middleware.NewRateLimiter(routes.QueryLimits(cfg.Server.RateLimitPerSecond, cfg.Server.Burst), h.logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{ServiceName: serviceName, LogRequests: true}, h.logger),
	})
}

func runServe(ctx context.Context, h *host, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           otelhttp.NewHandler(newQueryHandler(h, cfg), serviceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	h.refreshGauges()
	go func() {
		ticker := time.NewTicker(gaugeRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.refreshGauges()
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("query API listening", "address", cfg.Server.ListenAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	h.logger.Info("query API shutting down")
	return server.Shutdown(shutdownCtx)
}
