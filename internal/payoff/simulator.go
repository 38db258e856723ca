package payoff

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MaxMonths is the hard iteration cap (100 years).
	MaxMonths = 1200

	// StallWindow is the number of consecutive months without any principal
	// reduction after which the portfolio is reported as perpetual.
	StallWindow = 24
)

var monthsTimesPercent = decimal.NewFromInt(1200)

// RoundCents rounds to the smallest currency unit, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MonthlyInterest returns one month of interest on balance at the given
// annual percentage rate, rounded half-up to cents.
func MonthlyInterest(balance, annualRatePercent decimal.Decimal) decimal.Decimal {
	if balance.Sign() <= 0 || annualRatePercent.Sign() <= 0 {
		return decimal.Zero
	}
	return balance.Mul(annualRatePercent).DivRound(monthsTimesPercent, 2)
}

type debtState struct {
	snap     DebtSnapshot
	original decimal.Decimal
	balance  decimal.Decimal
	minimum  decimal.Decimal
	interest decimal.Decimal // accrued in the current month
	paidSum  decimal.Decimal
	accrued  decimal.Decimal
}

type monthEntry struct {
	previous decimal.Decimal
	interest decimal.Decimal
	paid     decimal.Decimal
}

// Simulate runs the month-by-month amortization loop for one strategy.
//
// The monthly budget is the sum of the minimum payments of every debt with a
// positive balance plus extraPayment. It stays constant for the whole run, so
// the minimum of a debt that has been paid off rolls over to the remaining
// ones. Debts with a zero balance take no part. The input slice is never
// modified.
func Simulate(ctx context.Context, debts []DebtSnapshot, extraPayment decimal.Decimal, strategy Strategy) (PayoffPlan, error) {
	name := strategy.Name()
	plan := emptyPlan(name)

	states := make(map[string]*debtState, len(debts))
	active := make([]string, 0, len(debts))
	budget := decimal.Max(RoundCents(extraPayment), decimal.Zero)

	for i, d := range debts {
		if d.ID == "" {
			verr := &ValidationError{}
			verr.add(fmt.Sprintf("debts[%d].id", i), "must not be empty")
			return PayoffPlan{}, verr
		}
		if _, dup := states[d.ID]; dup {
			verr := &ValidationError{}
			verr.add(fmt.Sprintf("debts[%d].id", i), "duplicate id %q", d.ID)
			return PayoffPlan{}, verr
		}
		balance := RoundCents(d.CurrentBalance)
		if balance.Sign() <= 0 {
			continue
		}
		minimum := decimal.Max(RoundCents(d.MinimumPayment), decimal.Zero)
		states[d.ID] = &debtState{
			snap:     d,
			original: balance,
			balance:  balance,
			minimum:  minimum,
			paidSum:  decimal.Zero,
			accrued:  decimal.Zero,
		}
		active = append(active, d.ID)
		budget = budget.Add(minimum)
	}

	if len(active) == 0 {
		return plan, nil
	}

	stalled := 0
	for month := 1; len(active) > 0; month++ {
		if err := ctx.Err(); err != nil {
			return PayoffPlan{}, err
		}
		if month > MaxMonths {
			return PayoffPlan{}, perpetualError(name, month-1, true, active, states)
		}

		entries := make(map[string]*monthEntry, len(active))
		view := make([]DebtSnapshot, 0, len(active))
		for _, id := range active {
			st := states[id]
			interest := MonthlyInterest(st.balance, st.snap.AnnualInterestRatePercent)
			entries[id] = &monthEntry{previous: st.balance, interest: interest, paid: decimal.Zero}
			st.interest = interest
			st.balance = st.balance.Add(interest)
			st.accrued = st.accrued.Add(interest)

			s := st.snap
			s.CurrentBalance = st.balance
			view = append(view, s)
		}

		ordered := strategy.Order(view)
		if err := checkPermutation(view, ordered); err != nil {
			return PayoffPlan{}, &InvariantError{Strategy: name, Month: month, Detail: err.Error()}
		}

		remaining := budget
		pay := func(id string, amount decimal.Decimal) {
			st := states[id]
			st.balance = st.balance.Sub(amount)
			st.paidSum = st.paidSum.Add(amount)
			entries[id].paid = entries[id].paid.Add(amount)
			remaining = remaining.Sub(amount)
		}

		// Minimums first, capped at the post-interest balance.
		for _, d := range ordered {
			st := states[d.ID]
			amount := decimal.Min(st.minimum, st.balance, remaining)
			if amount.Sign() > 0 {
				pay(d.ID, amount)
			}
		}

		// Extra plus freed minimums go to the priority debt and cascade.
		for _, d := range ordered {
			if remaining.Sign() <= 0 {
				break
			}
			st := states[d.ID]
			if st.balance.Sign() <= 0 {
				continue
			}
			pay(d.ID, decimal.Min(remaining, st.balance))
		}

		progressed := false
		stillActive := make([]string, 0, len(active))
		for _, d := range ordered {
			st := states[d.ID]
			e := entries[d.ID]

			if st.balance.Sign() < 0 {
				return PayoffPlan{}, &InvariantError{Strategy: name, Month: month, DebtID: d.ID,
					Detail: "negative balance " + st.balance.String()}
			}
			if e.paid.GreaterThan(e.previous.Add(e.interest)) {
				return PayoffPlan{}, &InvariantError{Strategy: name, Month: month, DebtID: d.ID,
					Detail: "payment " + e.paid.String() + " exceeds balance plus interest"}
			}

			if e.interest.Sign() > 0 || e.paid.Sign() > 0 {
				plan.Schedule = append(plan.Schedule, MonthlyAllocation{
					DebtID:             d.ID,
					Month:              month,
					PreviousBalance:    e.previous,
					PaymentApplied:     e.paid,
					InterestAccrued:    e.interest,
					PrincipalReduction: e.previous.Sub(st.balance),
					RemainingBalance:   st.balance,
				})
				plan.TotalInterestPaid = plan.TotalInterestPaid.Add(e.interest)
				plan.TotalPaid = plan.TotalPaid.Add(e.paid)
			}

			if st.balance.LessThan(e.previous) {
				progressed = true
			}

			if st.balance.IsZero() {
				plan.PayoffOrder = append(plan.PayoffOrder, PayoffEvent{
					DebtID:                    d.ID,
					Name:                      st.snap.Name,
					OriginalBalance:           st.original,
					AnnualInterestRatePercent: st.snap.AnnualInterestRatePercent,
					Month:                     month,
				})
				plan.TotalMonths = month
				continue
			}
			stillActive = append(stillActive, d.ID)
		}
		active = stillActive

		if progressed {
			stalled = 0
		} else {
			stalled++
		}
		if stalled >= StallWindow {
			return PayoffPlan{}, perpetualError(name, month, false, active, states)
		}
	}

	for id, st := range states {
		if !st.paidSum.Equal(st.original.Add(st.accrued)) {
			return PayoffPlan{}, &InvariantError{Strategy: name, Month: plan.TotalMonths, DebtID: id,
				Detail: "payments " + st.paidSum.String() + " do not match balance plus interest " + st.original.Add(st.accrued).String()}
		}
	}

	return plan, nil
}

// perpetualError names the debts whose minimum does not exceed their interest.
// When no debt qualifies every still-active debt is reported.
func perpetualError(strategy StrategyName, month int, capHit bool, active []string, states map[string]*debtState) *PerpetualDebtError {
	err := &PerpetualDebtError{Strategy: strategy, Month: month, CapHit: capHit}
	var all []StuckDebt
	for _, id := range active {
		st := states[id]
		stuck := StuckDebt{
			ID:              id,
			Name:            st.snap.Name,
			Balance:         st.balance,
			MinimumPayment:  st.minimum,
			MonthlyInterest: st.interest,
		}
		all = append(all, stuck)
		if st.minimum.LessThanOrEqual(st.interest) {
			err.Debts = append(err.Debts, stuck)
		}
	}
	if len(err.Debts) == 0 {
		err.Debts = all
	}
	return err
}

// checkPermutation verifies that a strategy returned every input debt exactly once.
func checkPermutation(in, out []DebtSnapshot) error {
	if len(in) != len(out) {
		return fmt.Errorf("strategy returned %d debts, expected %d", len(out), len(in))
	}
	seen := make(map[string]int, len(in))
	for _, d := range in {
		seen[d.ID]++
	}
	for _, d := range out {
		if seen[d.ID] == 0 {
			return fmt.Errorf("strategy returned unknown or duplicate debt %q", d.ID)
		}
		seen[d.ID]--
	}
	return nil
}
