package main

import (
	"context"
	"errors"
	"os"
	"time"

	"debtpayoff/internal/backend"
	"debtpayoff/internal/cli"
	"debtpayoff/internal/log"
	"debtpayoff/internal/payoff"
	"debtpayoff/internal/services"
	"debtpayoff/internal/sheets"
	gsheet "debtpayoff/internal/sheets/google"
	"debtpayoff/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting payoff-worker", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	planCache, stopCache, err := cli.NewPlanCache(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to create plan cache", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Google Sheets export is optional
	var exporter sheets.PlanExporter
	if cfg.SheetsExportEnabled() {
		client, err := gsheet.NewClient(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GooglePayoffSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GooglePayoffSheetName)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	planSvc := services.NewPlanService(result.Store, payoff.NewService(payoff.SystemClock, logger),
		planCache, payoff.SystemClock, logger)
	planWorker := worker.NewPlanWorker(planSvc, exporter, cfg.DefaultExtraPayment, logger)

	runCtx, stopRun := context.WithCancel(context.Background())
	finished := make(chan struct{}, 2)

	go func() {
		planWorker.Run(runCtx, cfg.PlanRefreshInterval)
		finished <- struct{}{}
	}()

	consumers := 1
	if result.Events != nil {
		consumers++
		go func() {
			if err := result.Events.ConsumeDebtChanged(runCtx, planWorker.HandleDebtChanged); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
			}
			finished <- struct{}{}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - refreshing on timer only",
			"interval", cfg.PlanRefreshInterval.String())
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		stopRun()
		for i := 0; i < consumers; i++ {
			select {
			case <-finished:
			case <-ctx.Done():
				return
			}
		}
		stopCache()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
