package google

import (
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/payoff"
)

// ScheduleHeader is the header row above the monthly allocations.
var ScheduleHeader = []any{"Month", "Date", "Debt", "Payment", "Interest", "Principal", "Remaining"}

// Rows lays out the recommended plan as sheet values: a short summary block,
// an empty row, the header and one row per debt per month. Amounts are plain
// strings with two decimals so USER_ENTERED parses them as numbers.
func Rows(cmp payoff.PayoffComparison, generatedAt time.Time) [][]any {
	plan := cmp.Plan(cmp.Recommended)

	names := make(map[string]string, len(plan.PayoffOrder))
	for _, ev := range plan.PayoffOrder {
		names[ev.DebtID] = ev.Name
	}

	payoffDate := ""
	if plan.TotalMonths > 0 {
		payoffDate = day(payoff.PayoffDate(generatedAt, plan.TotalMonths))
	}

	rows := [][]any{
		{"Strategy", string(plan.Strategy)},
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Total months", plan.TotalMonths},
		{"Payoff date", payoffDate},
		{"Total interest", money(plan.TotalInterestPaid)},
		{"Total paid", money(plan.TotalPaid)},
		{"Interest savings vs snowball", money(cmp.InterestSavings)},
		{"Time savings vs snowball (months)", cmp.TimeSavingsMonths},
		{},
		ScheduleHeader,
	}

	for _, a := range plan.Schedule {
		name := names[a.DebtID]
		if name == "" {
			name = a.DebtID
		}
		rows = append(rows, []any{
			a.Month,
			day(payoff.PayoffDate(generatedAt, a.Month)),
			name,
			money(a.PaymentApplied),
			money(a.InterestAccrued),
			money(a.PrincipalReduction),
			money(a.RemainingBalance),
		})
	}
	return rows
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}
