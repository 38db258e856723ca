package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"debtpayoff/internal/backend"
	"debtpayoff/internal/cli"
	apphttp "debtpayoff/internal/http"
	"debtpayoff/internal/log"
	"debtpayoff/internal/payoff"
	"debtpayoff/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend",
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err.Error(),
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	planCache, stopCache, err := cli.NewPlanCache(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to create plan cache", log.FieldError, err.Error())
		os.Exit(1)
	}

	var publisher services.EventPublisher
	if result.Events != nil {
		publisher = result.Events
	}
	debtSvc := services.NewDebtService(result.Store, publisher, logger)
	planSvc := services.NewPlanService(result.Store, payoff.NewService(payoff.SystemClock, logger),
		planCache, payoff.SystemClock, logger)

	srv := apphttp.NewServer(":"+cfg.Port, debtSvc, planSvc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSOrigins,
		Ready:              result.Ready,
		Logger:             logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		stopCache()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting debtpayoff server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
