package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"fincalc/internal/cli"
	"fincalc/internal/config"
	"fincalc/internal/core"
	apphttp "fincalc/internal/http"
	"fincalc/internal/log"
	"fincalc/internal/services"
)

func main() {
	cfg, logger := cli.MustBootstrap((*config.Config).Validate)

	calc := services.NewCalculator(logger)
	srv := apphttp.NewServer(calc, logger, apphttp.Options{
		Addr:               cfg.Addr(),
		MaxBodyBytes:       cfg.MaxBodyBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
	})

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fincalc server",
			"port", cfg.Port,
			"engine_version", core.Version,
			"rate_limit_per_minute", cfg.RateLimitPerMinute)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	m := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"total_requests", m.TotalRequests,
		"server_errors", m.ServerErrors)
}
