// Package payoff simulates month-by-month debt repayment under competing
// allocation strategies and compares the outcomes.
//
// Every function in this package is a pure function of its inputs: no state is
// shared between calls, so simulations may run concurrently without locking.
package payoff

import (
	"github.com/shopspring/decimal"
)

// StrategyName identifies an allocation strategy.
type StrategyName string

const (
	Avalanche StrategyName = "avalanche"
	Snowball  StrategyName = "snowball"
)

// String implements fmt.Stringer
func (s StrategyName) String() string {
	return string(s)
}

// IsValid returns true if the strategy name is known
func (s StrategyName) IsValid() bool {
	switch s {
	case Avalanche, Snowball:
		return true
	default:
		return false
	}
}

type (
	// DebtSnapshot is an immutable view of one debt at simulation start.
	DebtSnapshot struct {
		ID                        string
		Name                      string
		CurrentBalance            decimal.Decimal
		AnnualInterestRatePercent decimal.Decimal
		MinimumPayment            decimal.Decimal
	}

	// MonthlyAllocation is the outcome of one simulated month for one debt.
	MonthlyAllocation struct {
		DebtID             string
		Month              int
		PreviousBalance    decimal.Decimal
		PaymentApplied     decimal.Decimal
		InterestAccrued    decimal.Decimal
		PrincipalReduction decimal.Decimal // negative when the balance grew
		RemainingBalance   decimal.Decimal
	}

	// PayoffEvent records the month in which a debt reached zero.
	PayoffEvent struct {
		DebtID                    string
		Name                      string
		OriginalBalance           decimal.Decimal
		AnnualInterestRatePercent decimal.Decimal
		Month                     int
	}

	// MonthTotal aggregates all allocations of a single month.
	MonthTotal struct {
		Month            int
		Payment          decimal.Decimal
		Interest         decimal.Decimal
		RemainingBalance decimal.Decimal
	}

	// PayoffPlan is the output of one strategy run.
	PayoffPlan struct {
		Strategy          StrategyName
		TotalMonths       int
		TotalInterestPaid decimal.Decimal
		TotalPaid         decimal.Decimal
		PayoffOrder       []PayoffEvent
		Schedule          []MonthlyAllocation
	}

	// PayoffComparison holds both plans and the derived recommendation.
	//
	// InterestSavings is snowball minus avalanche total interest, so it is
	// positive when avalanche is cheaper. TimeSavingsMonths follows the same sign.
	PayoffComparison struct {
		Avalanche         PayoffPlan
		Snowball          PayoffPlan
		InterestSavings   decimal.Decimal
		TimeSavingsMonths int
		Recommended       StrategyName
	}
)

// emptyPlan returns the plan for a portfolio with no active debts.
func emptyPlan(strategy StrategyName) PayoffPlan {
	return PayoffPlan{
		Strategy:          strategy,
		TotalInterestPaid: decimal.Zero,
		TotalPaid:         decimal.Zero,
		PayoffOrder:       []PayoffEvent{},
		Schedule:          []MonthlyAllocation{},
	}
}

// MonthlyTotals aggregates the schedule per month. RemainingBalance is the
// sum of all debts at the end of that month; a debt without an allocation in
// some month keeps its last known balance.
func (p PayoffPlan) MonthlyTotals() []MonthTotal {
	if p.TotalMonths == 0 {
		return []MonthTotal{}
	}
	totals := make([]MonthTotal, p.TotalMonths)
	for i := range totals {
		totals[i] = MonthTotal{
			Month:            i + 1,
			Payment:          decimal.Zero,
			Interest:         decimal.Zero,
			RemainingBalance: decimal.Zero,
		}
	}

	byDebt := make(map[string][]MonthlyAllocation)
	var ids []string
	for _, a := range p.Schedule {
		if a.Month < 1 || a.Month > p.TotalMonths {
			continue
		}
		if _, ok := byDebt[a.DebtID]; !ok {
			ids = append(ids, a.DebtID)
		}
		byDebt[a.DebtID] = append(byDebt[a.DebtID], a)
		t := &totals[a.Month-1]
		t.Payment = t.Payment.Add(a.PaymentApplied)
		t.Interest = t.Interest.Add(a.InterestAccrued)
	}

	for _, id := range ids {
		allocs := byDebt[id]
		balance := allocs[0].PreviousBalance
		next := 0
		for m := 1; m <= p.TotalMonths; m++ {
			if next < len(allocs) && allocs[next].Month == m {
				balance = allocs[next].RemainingBalance
				next++
			}
			totals[m-1].RemainingBalance = totals[m-1].RemainingBalance.Add(balance)
		}
	}
	return totals
}

// ScheduleFor returns the allocations of a single debt in month order.
func (p PayoffPlan) ScheduleFor(debtID string) []MonthlyAllocation {
	var out []MonthlyAllocation
	for _, a := range p.Schedule {
		if a.DebtID == debtID {
			out = append(out, a)
		}
	}
	return out
}

// Plan returns the plan produced by the given strategy.
func (c PayoffComparison) Plan(strategy StrategyName) PayoffPlan {
	if strategy == Snowball {
		return c.Snowball
	}
	return c.Avalanche
}
