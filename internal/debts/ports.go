// Package debts defines the data source ports for debt records. The HTTP
// server and the worker receive an implementation at startup; nothing in the
// request path decides between demo and persistent data on its own.
package debts

import (
	"context"

	"debtpayoff/internal/core"
)

// Ports for outbound adapters.
type (
	DebtReader interface {
		// ListDebts returns every debt in creation order.
		ListDebts(ctx context.Context) ([]core.Debt, error)
		// GetDebt returns core.ErrNotFound when the id is unknown.
		GetDebt(ctx context.Context, id string) (core.Debt, error)
	}

	DebtWriter interface {
		CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
		UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
		DeleteDebt(ctx context.Context, id string) error
	}

	// PaymentRecorder stores a payment and lowers the debt balance atomically.
	PaymentRecorder interface {
		RecordPayment(ctx context.Context, p core.DebtPayment) (core.Debt, error)
		ListPayments(ctx context.Context, debtID string) ([]core.DebtPayment, error)
	}

	// Resetter restores a data source to its initial content. Only the demo
	// source implements it.
	Resetter interface {
		Reset(ctx context.Context) error
	}

	// Store is the full data source used by the services.
	Store interface {
		DebtReader
		DebtWriter
		PaymentRecorder
	}
)
