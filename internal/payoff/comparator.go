package payoff

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Compare simulates both strategies against the same snapshot and derives the
// savings and recommendation. The two runs share only the read-only input.
func Compare(ctx context.Context, debts []DebtSnapshot, extraPayment decimal.Decimal) (PayoffComparison, error) {
	var avalanche, snowball PayoffPlan

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := Simulate(gctx, debts, extraPayment, AvalancheStrategy{})
		avalanche = p
		return err
	})
	g.Go(func() error {
		p, err := Simulate(gctx, debts, extraPayment, SnowballStrategy{})
		snowball = p
		return err
	})
	if err := g.Wait(); err != nil {
		return PayoffComparison{}, err
	}

	return comparePlans(avalanche, snowball), nil
}

// comparePlans derives savings from two finished plans. Ties favour avalanche.
func comparePlans(avalanche, snowball PayoffPlan) PayoffComparison {
	recommended := Avalanche
	if avalanche.TotalInterestPaid.GreaterThan(snowball.TotalInterestPaid) {
		recommended = Snowball
	}
	return PayoffComparison{
		Avalanche:         avalanche,
		Snowball:          snowball,
		InterestSavings:   snowball.TotalInterestPaid.Sub(avalanche.TotalInterestPaid),
		TimeSavingsMonths: snowball.TotalMonths - avalanche.TotalMonths,
		Recommended:       recommended,
	}
}
