package payoff

import (
	"fmt"
	"sort"
)

// Strategy orders the currently unpaid debts by repayment priority.
// Implementations must return a new slice and leave the input untouched.
type Strategy interface {
	Name() StrategyName
	Order(debts []DebtSnapshot) []DebtSnapshot
}

// AvalancheStrategy pays the most expensive debt first.
type AvalancheStrategy struct{}

// Name implements Strategy.
func (AvalancheStrategy) Name() StrategyName { return Avalanche }

// Order sorts by interest rate descending, then larger balance, then id.
func (AvalancheStrategy) Order(debts []DebtSnapshot) []DebtSnapshot {
	out := append([]DebtSnapshot(nil), debts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.AnnualInterestRatePercent.Cmp(b.AnnualInterestRatePercent); c != 0 {
			return c > 0
		}
		if c := a.CurrentBalance.Cmp(b.CurrentBalance); c != 0 {
			return c > 0
		}
		return a.ID < b.ID
	})
	return out
}

// SnowballStrategy pays the smallest balance first.
type SnowballStrategy struct{}

// Name implements Strategy.
func (SnowballStrategy) Name() StrategyName { return Snowball }

// Order sorts by balance ascending, then higher interest rate, then id.
func (SnowballStrategy) Order(debts []DebtSnapshot) []DebtSnapshot {
	out := append([]DebtSnapshot(nil), debts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.CurrentBalance.Cmp(b.CurrentBalance); c != 0 {
			return c < 0
		}
		if c := a.AnnualInterestRatePercent.Cmp(b.AnnualInterestRatePercent); c != 0 {
			return c > 0
		}
		return a.ID < b.ID
	})
	return out
}

// strategies is read-only after init.
var strategies = map[StrategyName]Strategy{
	Avalanche: AvalancheStrategy{},
	Snowball:  SnowballStrategy{},
}

// StrategyFor returns the strategy registered under name.
func StrategyFor(name StrategyName) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return s, nil
}

// Strategies returns the names of all known strategies in a stable order.
func Strategies() []StrategyName {
	return []StrategyName{Avalanche, Snowball}
}
