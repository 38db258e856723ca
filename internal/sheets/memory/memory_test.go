package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/payoff"
)

func TestStoreKeepsLastExport(t *testing.T) {
	s := New()
	cmp, err := payoff.Compare(context.Background(), []payoff.DebtSnapshot{{
		ID:                        "card",
		Name:                      "Card",
		CurrentBalance:            decimal.NewFromInt(300),
		AnnualInterestRatePercent: decimal.NewFromInt(12),
		MinimumPayment:            decimal.NewFromInt(100),
	}}, decimal.Zero)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	for i, want := range []string{"mem:1", "mem:2"} {
		ref, err := s.ExportPlan(context.Background(), cmp, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil || ref != want {
			t.Fatalf("export %d: ref=%q err=%v", i+1, ref, err)
		}
	}
	if s.Exports() != 2 {
		t.Errorf("Exports() = %d, want 2", s.Exports())
	}
	rows := s.Last()
	if len(rows) <= 10 {
		t.Fatalf("expected schedule rows, got %d", len(rows))
	}
	if rows[10][2] != "Card" {
		t.Errorf("first schedule row = %v", rows[10])
	}
}
