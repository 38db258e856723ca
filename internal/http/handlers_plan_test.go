package http

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtpayoff/internal/core"
	"debtpayoff/internal/debts/memory"
)

func loanStore(debts ...core.Debt) *memory.Store {
	return memory.New(debts)
}

func loan(id, name, balance, rate, minimum string) core.Debt {
	return core.Debt{
		ID:              id,
		Name:            name,
		Type:            core.PersonalLoan,
		OriginalBalance: decimal.RequireFromString(balance),
		CurrentBalance:  decimal.RequireFromString(balance),
		InterestRate:    decimal.RequireFromString(rate),
		MinimumPayment:  decimal.RequireFromString(minimum),
		DueDay:          1,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
}

func twoLoans() *memory.Store {
	return loanStore(
		loan("a", "Loan A", "10000", "20", "300"),
		loan("b", "Loan B", "5000", "10", "150"),
	)
}

func TestPayoffPlanComparison(t *testing.T) {
	srv := newTestServer(t, twoLoans(), Options{})

	rr := do(t, srv, http.MethodPost, "/debts/payoff-plan", `{"extra_payment": 500, "strategy": "both"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "miss", rr.Header().Get(PlanCacheHeader))

	cmp := decode[comparisonResponse](t, rr)
	assert.Equal(t, "avalanche", cmp.Avalanche.Method)
	assert.Equal(t, "snowball", cmp.Snowball.Method)
	assert.Equal(t, "avalanche", cmp.Comparison.Recommended)
	assert.Equal(t, []string{"a", "b"}, cmp.Avalanche.PayoffOrder)
	assert.Equal(t, []string{"b", "a"}, cmp.Snowball.PayoffOrder)

	interest, err := decimal.NewFromString(cmp.Comparison.InterestSavings.String())
	require.NoError(t, err)
	assert.True(t, interest.IsPositive(), "avalanche saving should be reported as positive, got %s", interest)
	avalanche, err := decimal.NewFromString(cmp.Avalanche.TotalInterest.String())
	require.NoError(t, err)
	snowball, err := decimal.NewFromString(cmp.Snowball.TotalInterest.String())
	require.NoError(t, err)
	assert.True(t, interest.Equal(snowball.Sub(avalanche)), "savings %s", interest)
	assert.Equal(t, cmp.Snowball.TotalMonths-cmp.Avalanche.TotalMonths, cmp.Comparison.TimeSavingsMonths)
	assert.GreaterOrEqual(t, cmp.Comparison.TimeSavingsMonths, 0)

	for _, plan := range []planResponse{cmp.Avalanche, cmp.Snowball} {
		require.NotNil(t, plan.PayoffDate)
		assert.Positive(t, plan.TotalMonths)
		require.Len(t, plan.Debts, 2)
		last := plan.Debts[len(plan.Debts)-1]
		assert.Equal(t, plan.TotalMonths, last.PayoffMonth)
		assert.Equal(t, *plan.PayoffDate, last.PayoffDate)
		assert.LessOrEqual(t, len(plan.MonthlySchedule), previewMonths)
		assert.Equal(t, 1, plan.MonthlySchedule[0].Month)
		assert.Len(t, plan.MonthlySchedule[0].Debts, 2)
		assert.NotEmpty(t, plan.Schedule)
	}

	// Month one: both debts accrue interest, the whole budget of 950 is paid
	first := cmp.Avalanche.MonthlySchedule[0]
	assert.Equal(t, "950.00", first.Payment.String())

	rr = do(t, srv, http.MethodPost, "/debts/payoff-plan", `{"extra_payment": 500, "strategy": "both"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hit", rr.Header().Get(PlanCacheHeader))
	assert.Equal(t, cmp, decode[comparisonResponse](t, rr))
}

func TestPayoffPlanSingleStrategy(t *testing.T) {
	srv := newTestServer(t, twoLoans(), Options{})

	rr := do(t, srv, http.MethodPost, "/debts/payoff-plan", `{"extra_payment": "250.00", "strategy": "snowball"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	plan := decode[planResponse](t, rr)
	assert.Equal(t, "snowball", plan.Method)
	assert.Equal(t, "b", plan.Debts[0].ID)
	assert.Equal(t, "Loan B", plan.Debts[0].Name)
	assert.Equal(t, "5000.00", plan.Debts[0].OriginalBalance.String())
	assert.Equal(t, "10", plan.Debts[0].InterestRate.String())
	assert.NotContains(t, rr.Body.String(), `"comparison"`)
}

func TestPayoffPlanDefaults(t *testing.T) {
	srv := newTestServer(t, twoLoans(), Options{})

	req := do(t, srv, http.MethodPost, "/debts/payoff-plan", "")
	require.Equal(t, http.StatusOK, req.Code, req.Body.String())
	assert.Contains(t, req.Body.String(), `"recommended"`)
}

func TestPayoffPlanWithoutDebts(t *testing.T) {
	srv := newTestServer(t, loanStore(), Options{})

	rr := do(t, srv, http.MethodPost, "/debts/payoff-plan", `{"strategy": "avalanche"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	plan := decode[planResponse](t, rr)
	assert.Equal(t, 0, plan.TotalMonths)
	assert.Nil(t, plan.PayoffDate)
	assert.Equal(t, "0.00", plan.TotalPaid.String())
	assert.Empty(t, plan.Debts)
	assert.Empty(t, plan.MonthlySchedule)
	assert.Contains(t, rr.Body.String(), `"payoff_date":null`)
	assert.Contains(t, rr.Body.String(), `"debts":[]`)
}

func TestPayoffPlanRejectsInvalidInput(t *testing.T) {
	srv := newTestServer(t, twoLoans(), Options{})

	tests := []struct {
		name       string
		body       string
		status     int
		wantFields []string
	}{
		{"unknown strategy", `{"strategy": "blizzard"}`, http.StatusUnprocessableEntity, []string{"strategy"}},
		{"negative extra payment", `{"extra_payment": -1}`, http.StatusUnprocessableEntity, []string{"extra_payment"}},
		{"non numeric extra payment", `{"extra_payment": "lots"}`, http.StatusBadRequest, nil},
		{"malformed body", `{"strategy": `, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/debts/payoff-plan", tt.body)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			body := decode[errorBody](t, rr)
			assert.Equal(t, codeValidation, body.Code)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, fields(body))
			}
		})
	}
}

func TestPayoffPlanPerpetualDebt(t *testing.T) {
	trap := loan("trap", "Trap Card", "10000", "24", "10")
	srv := newTestServer(t, loanStore(trap), Options{})

	rr := do(t, srv, http.MethodPost, "/debts/payoff-plan", `{"strategy": "avalanche"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	body := decode[errorBody](t, rr)
	assert.Equal(t, codePerpetualDebt, body.Code)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "trap", body.Details[0].Field)
	assert.Contains(t, body.Details[0].Message, "minimum payment 10.00")

	// A large enough extra payment makes the same portfolio payable
	rr = do(t, srv, http.MethodPost, "/debts/payoff-plan", `{"strategy": "avalanche", "extra_payment": 500}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}
