package core

import "github.com/shopspring/decimal"

// DebtSummary aggregates the whole portfolio.
type DebtSummary struct {
	TotalDebt       decimal.Decimal
	MinimumPayment  decimal.Decimal // sum over active debts
	DebtCount       int
	ActiveDebtCount int
}

// Summarize aggregates a list of debts.
func Summarize(debts []Debt) DebtSummary {
	s := DebtSummary{
		TotalDebt:      decimal.Zero,
		MinimumPayment: decimal.Zero,
		DebtCount:      len(debts),
	}
	for _, d := range debts {
		s.TotalDebt = s.TotalDebt.Add(d.CurrentBalance)
		if d.IsActive() {
			s.ActiveDebtCount++
			s.MinimumPayment = s.MinimumPayment.Add(d.MinimumPayment)
		}
	}
	return s
}
