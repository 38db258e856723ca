package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/core"

	_ "modernc.org/sqlite"
)

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("Debt schema ready",
		"db_path", dbPath,
		"version", schema.Version,
		"migrated", schema.Applied)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListDebts implements debts.DebtReader
func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.queries.ListDebts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	out := make([]core.Debt, 0, len(rows))
	for _, row := range rows {
		d, err := toCoreDebt(row)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// GetDebt implements debts.DebtReader
func (r *SQLiteRepository) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	row, err := r.queries.GetDebt(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	return toCoreDebt(row)
}

// CreateDebt implements debts.DebtWriter
func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	row, err := r.queries.CreateDebt(ctx, CreateDebtParams{
		ID:                   d.ID,
		Name:                 d.Name,
		DebtType:             string(d.Type),
		OriginalBalanceCents: core.ToCents(d.OriginalBalance),
		CurrentBalanceCents:  core.ToCents(d.CurrentBalance),
		InterestRate:         d.InterestRate.String(),
		MinimumPaymentCents:  core.ToCents(d.MinimumPayment),
		DueDay:               int64(d.DueDay),
		LinkedAccountID:      d.LinkedAccountID,
		Notes:                d.Notes,
		CreatedAt:            d.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:            d.UpdatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}

	slog.InfoContext(ctx, "Debt saved to SQLite",
		"debt_id", row.ID,
		"name", row.Name,
		"current_balance_cents", row.CurrentBalanceCents)

	return toCoreDebt(row)
}

// UpdateDebt implements debts.DebtWriter
func (r *SQLiteRepository) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	row, err := r.queries.UpdateDebt(ctx, UpdateDebtParams{
		Name:                 d.Name,
		DebtType:             string(d.Type),
		OriginalBalanceCents: core.ToCents(d.OriginalBalance),
		CurrentBalanceCents:  core.ToCents(d.CurrentBalance),
		InterestRate:         d.InterestRate.String(),
		MinimumPaymentCents:  core.ToCents(d.MinimumPayment),
		DueDay:               int64(d.DueDay),
		LinkedAccountID:      d.LinkedAccountID,
		Notes:                d.Notes,
		UpdatedAt:            d.UpdatedAt.UTC().Format(timeLayout),
		ID:                   d.ID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, fmt.Errorf("debt %s: %w", d.ID, core.ErrNotFound)
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	return toCoreDebt(row)
}

// DeleteDebt implements debts.DebtWriter. Payments of the debt go with it.
func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id string) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeletePaymentsByDebt(ctx, id); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		n, err := q.DeleteDebt(ctx, id)
		if err != nil {
			return fmt.Errorf("delete debt: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

// RecordPayment implements debts.PaymentRecorder. The payment row and the new
// balance are written in one transaction.
func (r *SQLiteRepository) RecordPayment(ctx context.Context, p core.DebtPayment) (core.Debt, error) {
	var updated core.Debt
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetDebt(ctx, p.DebtID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("debt %s: %w", p.DebtID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get debt: %w", err)
		}
		d, err := toCoreDebt(row)
		if err != nil {
			return err
		}
		updated, err = d.ApplyPayment(p, p.CreatedAt)
		if err != nil {
			return err
		}

		if _, err := q.CreatePayment(ctx, CreatePaymentParams{
			ID:          p.ID,
			DebtID:      p.DebtID,
			AmountCents: core.ToCents(p.Amount),
			PaymentDate: p.PaymentDate.Format(dateLayout),
			Notes:       p.Notes,
			CreatedAt:   p.CreatedAt.UTC().Format(timeLayout),
		}); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return q.UpdateDebtBalance(ctx, UpdateDebtBalanceParams{
			CurrentBalanceCents: core.ToCents(updated.CurrentBalance),
			UpdatedAt:           updated.UpdatedAt.UTC().Format(timeLayout),
			ID:                  updated.ID,
		})
	})
	if err != nil {
		return core.Debt{}, err
	}

	slog.InfoContext(ctx, "Debt payment saved to SQLite",
		"debt_id", p.DebtID,
		"payment_id", p.ID,
		"amount_cents", core.ToCents(p.Amount))

	return updated, nil
}

// ListPayments implements debts.PaymentRecorder
func (r *SQLiteRepository) ListPayments(ctx context.Context, debtID string) ([]core.DebtPayment, error) {
	if _, err := r.GetDebt(ctx, debtID); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListPaymentsByDebt(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]core.DebtPayment, 0, len(rows))
	for _, row := range rows {
		p, err := toCorePayment(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toCoreDebt(row Debt) (core.Debt, error) {
	rate, err := decimal.NewFromString(row.InterestRate)
	if err != nil {
		return core.Debt{}, fmt.Errorf("debt %s: parse interest rate %q: %w", row.ID, row.InterestRate, err)
	}
	createdAt, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.Debt{}, fmt.Errorf("debt %s: parse created_at: %w", row.ID, err)
	}
	updatedAt, err := time.Parse(timeLayout, row.UpdatedAt)
	if err != nil {
		return core.Debt{}, fmt.Errorf("debt %s: parse updated_at: %w", row.ID, err)
	}
	return core.Debt{
		ID:              row.ID,
		Name:            row.Name,
		Type:            core.DebtType(row.DebtType),
		OriginalBalance: core.FromCents(row.OriginalBalanceCents),
		CurrentBalance:  core.FromCents(row.CurrentBalanceCents),
		InterestRate:    rate,
		MinimumPayment:  core.FromCents(row.MinimumPaymentCents),
		DueDay:          int(row.DueDay),
		LinkedAccountID: row.LinkedAccountID,
		Notes:           row.Notes,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func toCorePayment(row DebtPayment) (core.DebtPayment, error) {
	date, err := time.Parse(dateLayout, row.PaymentDate)
	if err != nil {
		return core.DebtPayment{}, fmt.Errorf("payment %s: parse payment_date: %w", row.ID, err)
	}
	createdAt, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.DebtPayment{}, fmt.Errorf("payment %s: parse created_at: %w", row.ID, err)
	}
	return core.DebtPayment{
		ID:          row.ID,
		DebtID:      row.DebtID,
		Amount:      core.FromCents(row.AmountCents),
		PaymentDate: date,
		Notes:       row.Notes,
		CreatedAt:   createdAt,
	}, nil
}
