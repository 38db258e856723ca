package payoff

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldProblem describes one rejected input field.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError reports malformed simulation input. It never reaches the
// simulator and is safe to retry after correction.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "invalid simulation input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// StuckDebt names a debt that cannot be extinguished.
type StuckDebt struct {
	ID              string
	Name            string
	Balance         decimal.Decimal
	MinimumPayment  decimal.Decimal
	MonthlyInterest decimal.Decimal
}

// PerpetualDebtError reports that the available payments never extinguish
// one or more debts. Callers can suggest a larger extra payment.
type PerpetualDebtError struct {
	Strategy StrategyName
	Month    int
	CapHit   bool
	Debts    []StuckDebt
}

func (e *PerpetualDebtError) Error() string {
	names := make([]string, 0, len(e.Debts))
	for _, d := range e.Debts {
		names = append(names, fmt.Sprintf("%s (minimum %s, interest %s)",
			d.Name, d.MinimumPayment.StringFixed(2), d.MonthlyInterest.StringFixed(2)))
	}
	reason := "no principal reduction"
	if e.CapHit {
		reason = "iteration cap reached"
	}
	return fmt.Sprintf("%s: debt cannot be paid off at month %d (%s): %s",
		e.Strategy, e.Month, reason, strings.Join(names, ", "))
}

// InvariantError signals a bug in the simulator, never a user condition.
type InvariantError struct {
	Strategy StrategyName
	Month    int
	DebtID   string
	Detail   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: internal invariant violated at month %d (debt %q): %s",
		e.Strategy, e.Month, e.DebtID, e.Detail)
}
