package storage

import (
	"context"
)

const debtColumns = `id, name, debt_type, original_balance_cents, current_balance_cents, interest_rate,
       minimum_payment_cents, due_day, linked_account_id, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDebt(row rowScanner) (Debt, error) {
	var i Debt
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.DebtType,
		&i.OriginalBalanceCents,
		&i.CurrentBalanceCents,
		&i.InterestRate,
		&i.MinimumPaymentCents,
		&i.DueDay,
		&i.LinkedAccountID,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createDebt = `-- name: CreateDebt :one
INSERT INTO debts (
    id, name, debt_type, original_balance_cents, current_balance_cents, interest_rate,
    minimum_payment_cents, due_day, linked_account_id, notes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + debtColumns

type CreateDebtParams struct {
	ID                   string
	Name                 string
	DebtType             string
	OriginalBalanceCents int64
	CurrentBalanceCents  int64
	InterestRate         string
	MinimumPaymentCents  int64
	DueDay               int64
	LinkedAccountID      string
	Notes                string
	CreatedAt            string
	UpdatedAt            string
}

func (q *Queries) CreateDebt(ctx context.Context, arg CreateDebtParams) (Debt, error) {
	row := q.db.QueryRowContext(ctx, createDebt,
		arg.ID,
		arg.Name,
		arg.DebtType,
		arg.OriginalBalanceCents,
		arg.CurrentBalanceCents,
		arg.InterestRate,
		arg.MinimumPaymentCents,
		arg.DueDay,
		arg.LinkedAccountID,
		arg.Notes,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanDebt(row)
}

const getDebt = `-- name: GetDebt :one
SELECT ` + debtColumns + `
FROM debts
WHERE id = ?`

func (q *Queries) GetDebt(ctx context.Context, id string) (Debt, error) {
	row := q.db.QueryRowContext(ctx, getDebt, id)
	return scanDebt(row)
}

const listDebts = `-- name: ListDebts :many
SELECT ` + debtColumns + `
FROM debts
ORDER BY rowid`

func (q *Queries) ListDebts(ctx context.Context) ([]Debt, error) {
	rows, err := q.db.QueryContext(ctx, listDebts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Debt
	for rows.Next() {
		i, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateDebt = `-- name: UpdateDebt :one
UPDATE debts
SET name = ?,
    debt_type = ?,
    original_balance_cents = ?,
    current_balance_cents = ?,
    interest_rate = ?,
    minimum_payment_cents = ?,
    due_day = ?,
    linked_account_id = ?,
    notes = ?,
    updated_at = ?
WHERE id = ?
RETURNING ` + debtColumns

type UpdateDebtParams struct {
	Name                 string
	DebtType             string
	OriginalBalanceCents int64
	CurrentBalanceCents  int64
	InterestRate         string
	MinimumPaymentCents  int64
	DueDay               int64
	LinkedAccountID      string
	Notes                string
	UpdatedAt            string
	ID                   string
}

func (q *Queries) UpdateDebt(ctx context.Context, arg UpdateDebtParams) (Debt, error) {
	row := q.db.QueryRowContext(ctx, updateDebt,
		arg.Name,
		arg.DebtType,
		arg.OriginalBalanceCents,
		arg.CurrentBalanceCents,
		arg.InterestRate,
		arg.MinimumPaymentCents,
		arg.DueDay,
		arg.LinkedAccountID,
		arg.Notes,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanDebt(row)
}

const updateDebtBalance = `-- name: UpdateDebtBalance :exec
UPDATE debts
SET current_balance_cents = ?,
    updated_at = ?
WHERE id = ?`

type UpdateDebtBalanceParams struct {
	CurrentBalanceCents int64
	UpdatedAt           string
	ID                  string
}

func (q *Queries) UpdateDebtBalance(ctx context.Context, arg UpdateDebtBalanceParams) error {
	_, err := q.db.ExecContext(ctx, updateDebtBalance, arg.CurrentBalanceCents, arg.UpdatedAt, arg.ID)
	return err
}

const deleteDebt = `-- name: DeleteDebt :execrows
DELETE FROM debts
WHERE id = ?`

func (q *Queries) DeleteDebt(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDebt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deletePaymentsByDebt = `-- name: DeletePaymentsByDebt :exec
DELETE FROM debt_payments
WHERE debt_id = ?`

func (q *Queries) DeletePaymentsByDebt(ctx context.Context, debtID string) error {
	_, err := q.db.ExecContext(ctx, deletePaymentsByDebt, debtID)
	return err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO debt_payments (id, debt_id, amount_cents, payment_date, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, debt_id, amount_cents, payment_date, notes, created_at`

type CreatePaymentParams struct {
	ID          string
	DebtID      string
	AmountCents int64
	PaymentDate string
	Notes       string
	CreatedAt   string
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (DebtPayment, error) {
	row := q.db.QueryRowContext(ctx, createPayment,
		arg.ID,
		arg.DebtID,
		arg.AmountCents,
		arg.PaymentDate,
		arg.Notes,
		arg.CreatedAt,
	)
	var i DebtPayment
	err := row.Scan(
		&i.ID,
		&i.DebtID,
		&i.AmountCents,
		&i.PaymentDate,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const listPaymentsByDebt = `-- name: ListPaymentsByDebt :many
SELECT id, debt_id, amount_cents, payment_date, notes, created_at
FROM debt_payments
WHERE debt_id = ?
ORDER BY rowid`

func (q *Queries) ListPaymentsByDebt(ctx context.Context, debtID string) ([]DebtPayment, error) {
	rows, err := q.db.QueryContext(ctx, listPaymentsByDebt, debtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DebtPayment
	for rows.Next() {
		var i DebtPayment
		if err := rows.Scan(
			&i.ID,
			&i.DebtID,
			&i.AmountCents,
			&i.PaymentDate,
			&i.Notes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
