package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/core"
	"debtpayoff/internal/payoff"
	"debtpayoff/internal/services"
)

const dateLayout = "2006-01-02"

// Requests

type debtCreateRequest struct {
	Name            string      `json:"name" validate:"required,max=100"`
	DebtType        string      `json:"debt_type" validate:"required,debt_type"`
	OriginalBalance json.Number `json:"original_balance" validate:"required,money_positive"`
	CurrentBalance  json.Number `json:"current_balance" validate:"required,money"`
	InterestRate    json.Number `json:"interest_rate" validate:"required,percent"`
	MinimumPayment  json.Number `json:"minimum_payment" validate:"required,money"`
	DueDay          int         `json:"due_day" validate:"required,min=1,max=31"`
	LinkedAccountID *string     `json:"linked_account_id" validate:"omitempty,max=100"`
	Notes           *string     `json:"notes" validate:"omitempty,max=1000"`
}

func (r debtCreateRequest) toDebt() core.Debt {
	return core.Debt{
		Name:            strings.TrimSpace(r.Name),
		Type:            core.DebtType(r.DebtType),
		OriginalBalance: amount(r.OriginalBalance),
		CurrentBalance:  amount(r.CurrentBalance),
		InterestRate:    rate(r.InterestRate),
		MinimumPayment:  amount(r.MinimumPayment),
		DueDay:          r.DueDay,
		LinkedAccountID: deref(r.LinkedAccountID),
		Notes:           deref(r.Notes),
	}
}

// debtUpdateRequest is a partial update; absent fields keep their value
type debtUpdateRequest struct {
	Name            *string      `json:"name" validate:"omitempty,min=1,max=100"`
	DebtType        *string      `json:"debt_type" validate:"omitempty,debt_type"`
	OriginalBalance *json.Number `json:"original_balance" validate:"omitempty,money_positive"`
	CurrentBalance  *json.Number `json:"current_balance" validate:"omitempty,money"`
	InterestRate    *json.Number `json:"interest_rate" validate:"omitempty,percent"`
	MinimumPayment  *json.Number `json:"minimum_payment" validate:"omitempty,money"`
	DueDay          *int         `json:"due_day" validate:"omitempty,min=1,max=31"`
	LinkedAccountID *string      `json:"linked_account_id" validate:"omitempty,max=100"`
	Notes           *string      `json:"notes" validate:"omitempty,max=1000"`
}

func (r debtUpdateRequest) toPatch() services.DebtPatch {
	var p services.DebtPatch
	p.Name = r.Name
	if r.DebtType != nil {
		t := core.DebtType(*r.DebtType)
		p.Type = &t
	}
	p.OriginalBalance = amountPtr(r.OriginalBalance, amount)
	p.CurrentBalance = amountPtr(r.CurrentBalance, amount)
	p.InterestRate = amountPtr(r.InterestRate, rate)
	p.MinimumPayment = amountPtr(r.MinimumPayment, amount)
	p.DueDay = r.DueDay
	p.LinkedAccountID = r.LinkedAccountID
	p.Notes = r.Notes
	return p
}

type paymentRequest struct {
	Amount      json.Number `json:"amount" validate:"required,money_positive"`
	PaymentDate string      `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string     `json:"notes" validate:"omitempty,max=1000"`
}

func (r paymentRequest) toInput() services.PaymentInput {
	in := services.PaymentInput{
		Amount: amount(r.Amount),
		Notes:  deref(r.Notes),
	}
	if r.PaymentDate != "" {
		if t, err := time.Parse(dateLayout, r.PaymentDate); err == nil {
			in.PaymentDate = &t
		}
	}
	return in
}

// planRequest leaves range checks to the payoff engine so its validation
// problems reach the client unchanged.
type planRequest struct {
	ExtraPayment json.Number `json:"extra_payment" validate:"omitempty,decimal"`
	Strategy     string      `json:"strategy"`
}

func (r planRequest) toPlanRequest() services.PlanRequest {
	extra := decimal.Zero
	if r.ExtraPayment != "" {
		extra = rate(r.ExtraPayment)
	}
	return services.PlanRequest{ExtraPayment: extra, Strategy: strings.TrimSpace(r.Strategy)}
}

// Responses

type debtResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	DebtType        string      `json:"debt_type"`
	OriginalBalance json.Number `json:"original_balance"`
	CurrentBalance  json.Number `json:"current_balance"`
	InterestRate    json.Number `json:"interest_rate"`
	MinimumPayment  json.Number `json:"minimum_payment"`
	DueDay          int         `json:"due_day"`
	LinkedAccountID *string     `json:"linked_account_id"`
	Notes           *string     `json:"notes"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
}

func newDebtResponse(d core.Debt) debtResponse {
	return debtResponse{
		ID:              d.ID,
		Name:            d.Name,
		DebtType:        string(d.Type),
		OriginalBalance: money(d.OriginalBalance),
		CurrentBalance:  money(d.CurrentBalance),
		InterestRate:    json.Number(d.InterestRate.String()),
		MinimumPayment:  money(d.MinimumPayment),
		DueDay:          d.DueDay,
		LinkedAccountID: nullable(d.LinkedAccountID),
		Notes:           nullable(d.Notes),
		CreatedAt:       d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type paymentResponse struct {
	ID          string      `json:"id"`
	DebtID      string      `json:"debt_id"`
	Amount      json.Number `json:"amount"`
	PaymentDate string      `json:"payment_date"`
	Notes       *string     `json:"notes"`
	CreatedAt   string      `json:"created_at"`
}

func newPaymentResponse(p core.DebtPayment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		DebtID:      p.DebtID,
		Amount:      money(p.Amount),
		PaymentDate: p.PaymentDate.Format(dateLayout),
		Notes:       nullable(p.Notes),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type summaryResponse struct {
	TotalDebt       json.Number `json:"total_debt"`
	MinimumPayment  json.Number `json:"minimum_payment"`
	DebtCount       int         `json:"debt_count"`
	ActiveDebtCount int         `json:"active_debt_count"`
}

func newSummaryResponse(s core.DebtSummary) summaryResponse {
	return summaryResponse{
		TotalDebt:       money(s.TotalDebt),
		MinimumPayment:  money(s.MinimumPayment),
		DebtCount:       s.DebtCount,
		ActiveDebtCount: s.ActiveDebtCount,
	}
}

// Payoff plans

// previewMonths is how much of the monthly schedule is sent as a preview.
// The full per-debt schedule is always included.
const previewMonths = 12

type planDebtResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	OriginalBalance json.Number `json:"original_balance"`
	InterestRate    json.Number `json:"interest_rate"`
	PayoffMonth     int         `json:"payoff_month"`
	PayoffDate      string      `json:"payoff_date"`
}

type monthDebtBalance struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Balance json.Number `json:"balance"`
}

type monthResponse struct {
	Month            int                `json:"month"`
	Payment          json.Number        `json:"payment"`
	Interest         json.Number        `json:"interest"`
	RemainingBalance json.Number        `json:"remaining_balance"`
	Debts            []monthDebtBalance `json:"debts"`
}

type allocationResponse struct {
	DebtID             string      `json:"debt_id"`
	Month              int         `json:"month"`
	PreviousBalance    json.Number `json:"previous_balance"`
	PaymentApplied     json.Number `json:"payment_applied"`
	InterestAccrued    json.Number `json:"interest_accrued"`
	PrincipalReduction json.Number `json:"principal_reduction"`
	RemainingBalance   json.Number `json:"remaining_balance"`
}

type planResponse struct {
	Method          string               `json:"method"`
	TotalMonths     int                  `json:"total_months"`
	TotalInterest   json.Number          `json:"total_interest"`
	TotalPaid       json.Number          `json:"total_paid"`
	PayoffDate      *string              `json:"payoff_date"`
	Debts           []planDebtResponse   `json:"debts"`
	MonthlySchedule []monthResponse      `json:"monthly_schedule"`
	Schedule        []allocationResponse `json:"schedule"`
	PayoffOrder     []string             `json:"payoff_order"`
}

type comparisonSummary struct {
	InterestSavings   json.Number `json:"interest_savings"`
	TimeSavingsMonths int         `json:"time_savings_months"`
	Recommended       string      `json:"recommended"`
}

type comparisonResponse struct {
	Avalanche  planResponse      `json:"avalanche"`
	Snowball   planResponse      `json:"snowball"`
	Comparison comparisonSummary `json:"comparison"`
}

func newPlanResponse(p payoff.PayoffPlan, start time.Time) planResponse {
	resp := planResponse{
		Method:          p.Strategy.String(),
		TotalMonths:     p.TotalMonths,
		TotalInterest:   money(p.TotalInterestPaid),
		TotalPaid:       money(p.TotalPaid),
		Debts:           make([]planDebtResponse, 0, len(p.PayoffOrder)),
		MonthlySchedule: []monthResponse{},
		Schedule:        make([]allocationResponse, 0, len(p.Schedule)),
		PayoffOrder:     make([]string, 0, len(p.PayoffOrder)),
	}
	if p.TotalMonths > 0 {
		date := payoff.PayoffDate(start, p.TotalMonths).Format(dateLayout)
		resp.PayoffDate = &date
	}

	names := make(map[string]string, len(p.PayoffOrder))
	for _, e := range p.PayoffOrder {
		names[e.DebtID] = e.Name
		resp.PayoffOrder = append(resp.PayoffOrder, e.DebtID)
		resp.Debts = append(resp.Debts, planDebtResponse{
			ID:              e.DebtID,
			Name:            e.Name,
			OriginalBalance: money(e.OriginalBalance),
			InterestRate:    json.Number(e.AnnualInterestRatePercent.String()),
			PayoffMonth:     e.Month,
			PayoffDate:      payoff.PayoffDate(start, e.Month).Format(dateLayout),
		})
	}

	byMonth := make(map[int][]monthDebtBalance)
	for _, a := range p.Schedule {
		resp.Schedule = append(resp.Schedule, allocationResponse{
			DebtID:             a.DebtID,
			Month:              a.Month,
			PreviousBalance:    money(a.PreviousBalance),
			PaymentApplied:     money(a.PaymentApplied),
			InterestAccrued:    money(a.InterestAccrued),
			PrincipalReduction: money(a.PrincipalReduction),
			RemainingBalance:   money(a.RemainingBalance),
		})
		if a.Month <= previewMonths {
			byMonth[a.Month] = append(byMonth[a.Month], monthDebtBalance{
				ID:      a.DebtID,
				Name:    names[a.DebtID],
				Balance: money(a.RemainingBalance),
			})
		}
	}

	for _, t := range p.MonthlyTotals() {
		if t.Month > previewMonths {
			break
		}
		debts := byMonth[t.Month]
		if debts == nil {
			debts = []monthDebtBalance{}
		}
		resp.MonthlySchedule = append(resp.MonthlySchedule, monthResponse{
			Month:            t.Month,
			Payment:          money(t.Payment),
			Interest:         money(t.Interest),
			RemainingBalance: money(t.RemainingBalance),
			Debts:            debts,
		})
	}
	return resp
}

func newComparisonResponse(c payoff.PayoffComparison, start time.Time) comparisonResponse {
	return comparisonResponse{
		Avalanche: newPlanResponse(c.Avalanche, start),
		Snowball:  newPlanResponse(c.Snowball, start),
		Comparison: comparisonSummary{
			InterestSavings:   money(c.InterestSavings),
			TimeSavingsMonths: c.TimeSavingsMonths,
			Recommended:       c.Recommended.String(),
		},
	}
}

func money(d decimal.Decimal) json.Number {
	return json.Number(core.FormatAmount(d))
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func amountPtr(n *json.Number, conv func(json.Number) decimal.Decimal) *decimal.Decimal {
	if n == nil {
		return nil
	}
	d := conv(*n)
	return &d
}
