// Package cli provides common CLI initialization utilities shared by
// cmd/fincalc, cmd/fincalc-worker and cmd/fincalc-report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fincalc/internal/config"
	"fincalc/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and makes it the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads .env and the environment, validates the result with
// validate and returns the config together with a ready logger.
func Bootstrap(validate func(*config.Config) error) (*config.Config, *log.Logger, error) {
	LoadEnvFile()
	cfg := config.Load()
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, nil, err
		}
	}
	return cfg, SetupLogger(cfg), nil
}

// MustBootstrap is Bootstrap for main packages: it exits on failure.
func MustBootstrap(validate func(*config.Config) error) (*config.Config, *log.Logger) {
	cfg, logger, err := Bootstrap(validate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
