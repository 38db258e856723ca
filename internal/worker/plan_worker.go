// Package worker keeps the payoff plan for the current portfolio fresh. It
// recomputes on debt change events and on a timer, which warms the shared
// plan cache and feeds the spreadsheet export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/amqp"
	"debtpayoff/internal/log"
	"debtpayoff/internal/payoff"
	"debtpayoff/internal/services"
	"debtpayoff/internal/sheets"
)

// Planner computes the payoff plan for the stored debts
type Planner interface {
	Plan(ctx context.Context, req services.PlanRequest) (services.PlanResult, error)
}

// PlanWorker recomputes the comparison and exports the recommended plan
type PlanWorker struct {
	plans        Planner
	exporter     sheets.PlanExporter
	extraPayment decimal.Decimal
	logger       *log.Logger
	errors       *log.StructuredLogger
}

// NewPlanWorker creates the worker. A nil exporter skips the export step.
func NewPlanWorker(plans Planner, exporter sheets.PlanExporter, extraPayment decimal.Decimal, logger *log.Logger) *PlanWorker {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &PlanWorker{
		plans:        plans,
		exporter:     exporter,
		extraPayment: extraPayment,
		logger:       logger,
		errors:       log.NewStructuredLogger(logger),
	}
}

// HandleDebtChanged processes a single debt change message from AMQP
func (w *PlanWorker) HandleDebtChanged(ctx context.Context, msg *amqp.DebtChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing debt change message",
		log.FieldEvent, msg.Event,
		log.FieldDebtID, msg.DebtID,
		"timestamp", msg.Timestamp)

	return w.Refresh(ctx)
}

// Refresh recomputes both strategies with the configured extra payment and
// exports the recommended one. A portfolio that cannot be paid off is logged
// and skipped: retrying would fail the same way until the debts change.
func (w *PlanWorker) Refresh(ctx context.Context) error {
	res, err := w.plans.Plan(ctx, services.PlanRequest{
		ExtraPayment: w.extraPayment,
		Strategy:     payoff.StrategyBoth,
	})
	var perpetual *payoff.PerpetualDebtError
	var invalid *payoff.ValidationError
	switch {
	case errors.As(err, &perpetual):
		w.logger.WarnContext(ctx, "Portfolio cannot be paid off, skipping export",
			"stuck_debts", len(perpetual.Debts),
			log.FieldErrorType, log.ErrorTypePerpetualDebt,
			log.FieldError, err.Error())
		return nil
	case errors.As(err, &invalid):
		w.logger.WarnContext(ctx, "Stored debts failed validation, skipping export",
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err.Error())
		return nil
	case err != nil:
		return fmt.Errorf("compute plan: %w", err)
	}

	if res.Comparison == nil {
		return errors.New("compute plan: comparison missing from result")
	}
	cmp := *res.Comparison
	recommended := cmp.Plan(cmp.Recommended)

	w.logger.InfoContext(ctx, "Payoff plan refreshed",
		log.FieldStrategy, string(cmp.Recommended),
		log.FieldTotalMonths, recommended.TotalMonths,
		log.FieldCacheHit, res.CacheHit)

	if w.exporter == nil {
		return nil
	}
	ref, err := w.exporter.ExportPlan(ctx, cmp, res.GeneratedAt)
	if err != nil {
		w.errors.LogError(ctx, "Failed to export payoff plan", err, log.OpExport, log.NewFields())
		return fmt.Errorf("export plan: %w", err)
	}
	w.logger.InfoContext(ctx, "Exported payoff plan",
		"ref", ref,
		log.FieldStrategy, string(cmp.Recommended))
	return nil
}

// Run refreshes once at startup and then every interval until ctx is done.
// The timer covers events lost while the worker or the broker was down.
func (w *PlanWorker) Run(ctx context.Context, interval time.Duration) {
	if err := w.Refresh(ctx); err != nil {
		w.errors.LogError(ctx, "Startup plan refresh failed", err, log.OpStartup, log.NewFields())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				w.errors.LogError(ctx, "Periodic plan refresh failed", err, log.OpSimulate, log.NewFields())
			}
		}
	}
}
