package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/core"
)

func TestSampleDebtsAreValid(t *testing.T) {
	for _, d := range SampleDebts(time.Now()) {
		if err := d.Validate(); err != nil {
			t.Fatalf("%s: %v", d.ID, err)
		}
	}
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewDemo()

	list, err := s.ListDebts(ctx)
	if err != nil || len(list) != 5 {
		t.Fatalf("unexpected list: %d debts, err=%v", len(list), err)
	}

	d := list[0]
	d.ID = "debt_new"
	d.Name = "New Card"
	if _, err := s.CreateDebt(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateDebt(ctx, d); err == nil {
		t.Fatal("expected duplicate id error")
	}

	d.Notes = "renegotiated"
	if _, err := s.UpdateDebt(ctx, d); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetDebt(ctx, "debt_new")
	if err != nil || got.Notes != "renegotiated" {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}

	if err := s.DeleteDebt(ctx, "debt_new"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetDebt(ctx, "debt_new"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteDebt(ctx, "debt_new"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	list, _ = s.ListDebts(ctx)
	if len(list) != 5 {
		t.Fatalf("expected 5 debts after delete, got %d", len(list))
	}
}

func TestStoreRecordPaymentAndReset(t *testing.T) {
	ctx := context.Background()
	s := NewDemo()

	p := core.DebtPayment{
		ID:        "pay_1",
		DebtID:    "debt_demo_store_card",
		Amount:    decimal.RequireFromString("100"),
		CreatedAt: time.Now().UTC(),
	}
	d, err := s.RecordPayment(ctx, p)
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if !d.CurrentBalance.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("expected balance 3000, got %s", d.CurrentBalance)
	}
	payments, err := s.ListPayments(ctx, "debt_demo_store_card")
	if err != nil || len(payments) != 1 {
		t.Fatalf("unexpected payments: %v err=%v", payments, err)
	}

	p.Amount = decimal.RequireFromString("5000")
	if _, err := s.RecordPayment(ctx, p); !errors.Is(err, core.ErrPaymentTooLarge) {
		t.Fatalf("expected ErrPaymentTooLarge, got %v", err)
	}
	p.DebtID = "missing"
	if _, err := s.RecordPayment(ctx, p); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	d, _ = s.GetDebt(ctx, "debt_demo_store_card")
	if !d.CurrentBalance.Equal(decimal.RequireFromString("3100")) {
		t.Fatalf("expected seed balance after reset, got %s", d.CurrentBalance)
	}
	payments, _ = s.ListPayments(ctx, "debt_demo_store_card")
	if len(payments) != 0 {
		t.Fatalf("expected no payments after reset, got %d", len(payments))
	}
}
