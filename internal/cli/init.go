// Package cli provides the startup steps shared by cmd/debtpayoff and
// cmd/payoff-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"debtpayoff/internal/cache"
	"debtpayoff/internal/config"
	"debtpayoff/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	cfg.Component = component

	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// NewPlanCache returns the shared Redis cache when REDIS_URL is set and an
// in-process LRU otherwise. stop releases the cache and its cleanup loop.
func NewPlanCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache[[]byte], func(), error) {
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL, cfg.PlanCacheTTL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("Using Redis plan cache", "ttl", cfg.PlanCacheTTL.String())
		return rc, func() { _ = rc.Close() }, nil
	}

	lru := cache.NewLRUCache[[]byte](cfg.PlanCacheSize, cfg.PlanCacheTTL)
	manager := cache.NewManager(logger)
	manager.Register(lru)
	manager.StartCleanup(time.Minute)
	logger.Info("Using in-process plan cache",
		"size", cfg.PlanCacheSize,
		"ttl", cfg.PlanCacheTTL.String())
	stop := func() {
		manager.Stop()
		st := lru.Stats()
		logger.Info("Plan cache stopped",
			"entries", st.Entries,
			"hits", st.Hits,
			"misses", st.Misses,
			"evictions", st.Evictions)
	}
	return lru, stop, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled after cleanup has run, and done is closed
// once shutdown is complete or timeout has elapsed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
		}
		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and shutdown is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
