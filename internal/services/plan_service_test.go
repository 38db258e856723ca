package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtpayoff/internal/cache"
	"debtpayoff/internal/core"
	"debtpayoff/internal/debts/memory"
	"debtpayoff/internal/log"
	"debtpayoff/internal/payoff"
)

var planNow = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

func twoDebtStore() *memory.Store {
	d := func(id, name, balance, rate, minimum string) core.Debt {
		return core.Debt{
			ID:              id,
			Name:            name,
			Type:            core.PersonalLoan,
			OriginalBalance: decimal.RequireFromString(balance),
			CurrentBalance:  decimal.RequireFromString(balance),
			InterestRate:    decimal.RequireFromString(rate),
			MinimumPayment:  decimal.RequireFromString(minimum),
			DueDay:          1,
			CreatedAt:       planNow,
			UpdatedAt:       planNow,
		}
	}
	return memory.New([]core.Debt{
		d("a", "Loan A", "10000", "20", "300"),
		d("b", "Loan B", "5000", "10", "150"),
	})
}

func newPlanService(store *memory.Store, c cache.Cache[[]byte]) *PlanService {
	clock := payoff.ClockFunc(func() time.Time { return planNow })
	return NewPlanService(store, payoff.NewService(clock, log.Discard()), c, clock, log.Discard())
}

func TestSnapshots(t *testing.T) {
	list, err := twoDebtStore().ListDebts(context.Background())
	require.NoError(t, err)

	snaps := Snapshots(list)
	require.Len(t, snaps, 2)
	assert.Equal(t, "a", snaps[0].ID)
	assert.Equal(t, "Loan A", snaps[0].Name)
	assert.True(t, decimal.RequireFromString("20").Equal(snaps[0].AnnualInterestRatePercent))
	assert.True(t, decimal.RequireFromString("300").Equal(snaps[0].MinimumPayment))
}

func TestPlanKey(t *testing.T) {
	list, err := twoDebtStore().ListDebts(context.Background())
	require.NoError(t, err)
	snaps := Snapshots(list)
	req := PlanRequest{ExtraPayment: decimal.NewFromInt(500), Strategy: payoff.StrategyBoth}
	base := PlanKey(snaps, req, planNow)

	assert.Equal(t, base, PlanKey(snaps, req, planNow.Add(time.Hour)))
	assert.Equal(t, base, PlanKey(snaps, PlanRequest{ExtraPayment: decimal.RequireFromString("500.00"), Strategy: payoff.StrategyBoth}, planNow))

	assert.NotEqual(t, base, PlanKey(snaps, req, planNow.AddDate(0, 0, 1)))
	assert.NotEqual(t, base, PlanKey(snaps, PlanRequest{ExtraPayment: decimal.NewFromInt(501), Strategy: payoff.StrategyBoth}, planNow))
	assert.NotEqual(t, base, PlanKey(snaps, PlanRequest{ExtraPayment: decimal.NewFromInt(500), Strategy: "avalanche"}, planNow))

	changed := append([]payoff.DebtSnapshot(nil), snaps...)
	changed[1].CurrentBalance = decimal.RequireFromString("4999.99")
	assert.NotEqual(t, base, PlanKey(changed, req, planNow))

	renamed := append([]payoff.DebtSnapshot(nil), snaps...)
	renamed[0].Name = "Renamed card"
	assert.NotEqual(t, base, PlanKey(renamed, req, planNow))
}

func TestPlanServiceMissesAfterRename(t *testing.T) {
	ctx := context.Background()
	store := twoDebtStore()
	svc := newPlanService(store, cache.NewLRUCache[[]byte](10, time.Hour))
	req := PlanRequest{ExtraPayment: decimal.NewFromInt(500), Strategy: "avalanche"}

	first, err := svc.Plan(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, first.Plan)
	assert.Equal(t, "Loan A", first.Plan.PayoffOrder[0].Name)

	d, err := store.GetDebt(ctx, "a")
	require.NoError(t, err)
	d.Name = "Renamed card"
	_, err = store.UpdateDebt(ctx, d)
	require.NoError(t, err)

	second, err := svc.Plan(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.CacheHit)
	require.NotNil(t, second.Plan)
	assert.Equal(t, "Renamed card", second.Plan.PayoffOrder[0].Name)
}

func TestPlanServiceCanceledCallerDoesNotAbortSharedRun(t *testing.T) {
	lru := cache.NewLRUCache[[]byte](10, time.Hour)
	svc := newPlanService(twoDebtStore(), lru)
	req := PlanRequest{ExtraPayment: decimal.NewFromInt(500)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Plan(ctx, req)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	// the run started for the canceled caller still completes and is cached
	assert.Eventually(t, func() bool { return lru.Size() == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.CacheHit)
	require.NotNil(t, res.Comparison)
}

func TestPlanServiceCachesResults(t *testing.T) {
	ctx := context.Background()
	store := twoDebtStore()
	lru := cache.NewLRUCache[[]byte](10, time.Hour)
	svc := newPlanService(store, lru)
	req := PlanRequest{ExtraPayment: decimal.NewFromInt(500)}

	first, err := svc.Plan(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	require.NotNil(t, first.Comparison)
	assert.Equal(t, 1, lru.Size())

	second, err := svc.Plan(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	require.NotNil(t, second.Comparison)
	assert.Equal(t, first.Comparison.Recommended, second.Comparison.Recommended)
	assert.Equal(t, first.Comparison.Avalanche.TotalMonths, second.Comparison.Avalanche.TotalMonths)
	assert.True(t, first.Comparison.InterestSavings.Equal(second.Comparison.InterestSavings))
	assert.True(t, first.GeneratedAt.Equal(second.GeneratedAt))
	assert.Len(t, second.Comparison.Snowball.Schedule, len(first.Comparison.Snowball.Schedule))

	// a payment changes the inputs, so the next call misses
	_, err = store.RecordPayment(ctx, core.DebtPayment{
		ID: "pay_1", DebtID: "b", Amount: decimal.NewFromInt(100),
		PaymentDate: planNow, CreatedAt: planNow,
	})
	require.NoError(t, err)

	third, err := svc.Plan(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Equal(t, 2, lru.Size())
}

func TestPlanServiceSingleStrategy(t *testing.T) {
	res, err := newPlanService(twoDebtStore(), nil).Plan(context.Background(),
		PlanRequest{ExtraPayment: decimal.NewFromInt(500), Strategy: "snowball"})
	require.NoError(t, err)
	require.NotNil(t, res.Plan)
	assert.Nil(t, res.Comparison)
	assert.Equal(t, payoff.Snowball, res.Plan.Strategy)
	assert.Equal(t, "b", res.Plan.PayoffOrder[0].DebtID)
}

func TestPlanServiceDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	lru := cache.NewLRUCache[[]byte](10, time.Hour)
	store := memory.New([]core.Debt{{
		ID:              "trap",
		Name:            "Trap Card",
		Type:            core.CreditCard,
		OriginalBalance: decimal.NewFromInt(10000),
		CurrentBalance:  decimal.NewFromInt(10000),
		InterestRate:    decimal.NewFromInt(24),
		MinimumPayment:  decimal.NewFromInt(10),
		DueDay:          3,
	}})
	svc := newPlanService(store, lru)

	_, err := svc.Plan(ctx, PlanRequest{Strategy: "avalanche"})
	var perr *payoff.PerpetualDebtError
	assert.True(t, errors.As(err, &perr))

	_, err = svc.Plan(ctx, PlanRequest{Strategy: "blizzard"})
	var verr *payoff.ValidationError
	assert.True(t, errors.As(err, &verr))

	assert.Equal(t, 0, lru.Size())
}

func TestPlanServiceDiscardsUnreadableEntry(t *testing.T) {
	ctx := context.Background()
	store := twoDebtStore()
	lru := cache.NewLRUCache[[]byte](10, time.Hour)
	svc := newPlanService(store, lru)
	req := PlanRequest{ExtraPayment: decimal.Zero, Strategy: "avalanche"}

	list, err := store.ListDebts(ctx)
	require.NoError(t, err)
	lru.Set(ctx, PlanKey(Snapshots(list), req, planNow), []byte("{not json"))

	res, err := svc.Plan(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	require.NotNil(t, res.Plan)
}
