package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtpayoff/internal/amqp"
	"debtpayoff/internal/cache"
	"debtpayoff/internal/core"
	"debtpayoff/internal/debts/memory"
	"debtpayoff/internal/log"
	"debtpayoff/internal/payoff"
	"debtpayoff/internal/services"
	sheetsmem "debtpayoff/internal/sheets/memory"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newPlanService(store *memory.Store) *services.PlanService {
	clock := payoff.ClockFunc(func() time.Time { return testNow })
	return services.NewPlanService(store, payoff.NewService(clock, log.Discard()),
		cache.NewLRUCache[[]byte](8, time.Hour), clock, log.Discard())
}

type failingExporter struct{}

func (failingExporter) ExportPlan(context.Context, payoff.PayoffComparison, time.Time) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleDebtChangedExportsRecommendedPlan(t *testing.T) {
	exporter := sheetsmem.New()
	w := NewPlanWorker(newPlanService(memory.NewDemo()), exporter, decimal.NewFromInt(500), log.Discard())

	msg := amqp.NewDebtChangedMessage(amqp.EventDebtPayment, "debt_demo_store_card")
	require.NoError(t, w.HandleDebtChanged(context.Background(), msg))
	require.NoError(t, w.HandleDebtChanged(context.Background(), msg))

	assert.Equal(t, 2, exporter.Exports())
	rows := exporter.Last()
	require.NotEmpty(t, rows)
	assert.Equal(t, "Strategy", rows[0][0])
	assert.Contains(t, []any{"avalanche", "snowball"}, rows[0][1])
}

func TestRefreshWithoutExporter(t *testing.T) {
	w := NewPlanWorker(newPlanService(memory.NewDemo()), nil, decimal.Zero, nil)
	assert.NoError(t, w.Refresh(context.Background()))
}

func TestRefreshSkipsPerpetualPortfolio(t *testing.T) {
	store := memory.New([]core.Debt{{
		ID:              "trap",
		Name:            "Trap Card",
		Type:            core.CreditCard,
		OriginalBalance: decimal.NewFromInt(10000),
		CurrentBalance:  decimal.NewFromInt(10000),
		InterestRate:    decimal.NewFromInt(24),
		MinimumPayment:  decimal.NewFromInt(10),
		DueDay:          1,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}})
	exporter := sheetsmem.New()
	w := NewPlanWorker(newPlanService(store), exporter, decimal.Zero, log.Discard())

	// Requeueing would loop until the debts change, so the message is acked
	assert.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, 0, exporter.Exports())
}

func TestRefreshReportsExportFailure(t *testing.T) {
	w := NewPlanWorker(newPlanService(memory.NewDemo()), failingExporter{}, decimal.Zero, log.Discard())

	err := w.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRunRefreshesUntilCancelled(t *testing.T) {
	exporter := sheetsmem.New()
	w := NewPlanWorker(newPlanService(memory.NewDemo()), exporter, decimal.Zero, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return exporter.Exports() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
