package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtpayoff/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "debts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleDebt(id string) core.Debt {
	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)
	return core.Debt{
		ID:              id,
		Name:            "Card " + id,
		Type:            core.CreditCard,
		OriginalBalance: decimal.RequireFromString("5000"),
		CurrentBalance:  decimal.RequireFromString("3200.55"),
		InterestRate:    decimal.RequireFromString("24.99"),
		MinimumPayment:  decimal.RequireFromString("90"),
		DueDay:          15,
		Notes:           "limit 5k",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestRepositoryDebtLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateDebt(ctx, sampleDebt("debt_a"))
	require.NoError(t, err)
	assert.True(t, created.CurrentBalance.Equal(decimal.RequireFromString("3200.55")))
	assert.True(t, created.InterestRate.Equal(decimal.RequireFromString("24.99")))

	_, err = repo.CreateDebt(ctx, sampleDebt("debt_b"))
	require.NoError(t, err)

	list, err := repo.ListDebts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "debt_a", list[0].ID)
	assert.Equal(t, "debt_b", list[1].ID)

	upd := created
	upd.Name = "Renamed"
	upd.MinimumPayment = decimal.RequireFromString("120.10")
	upd.UpdatedAt = upd.UpdatedAt.Add(time.Hour)
	got, err := repo.UpdateDebt(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.MinimumPayment.Equal(decimal.RequireFromString("120.1")))
	assert.True(t, got.UpdatedAt.Equal(upd.UpdatedAt))
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))

	require.NoError(t, repo.DeleteDebt(ctx, "debt_a"))
	_, err = repo.GetDebt(ctx, "debt_a")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.True(t, errors.Is(repo.DeleteDebt(ctx, "debt_a"), core.ErrNotFound))

	missing := sampleDebt("debt_missing")
	_, err = repo.UpdateDebt(ctx, missing)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestRepositoryRejectsInvalidDebt(t *testing.T) {
	repo := newTestRepo(t)
	d := sampleDebt("debt_bad")
	d.DueDay = 40
	_, err := repo.CreateDebt(context.Background(), d)
	assert.ErrorIs(t, err, core.ErrInvalidDueDay)
}

func TestRepositoryRecordPayment(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.CreateDebt(ctx, sampleDebt("debt_a"))
	require.NoError(t, err)

	paidAt := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	d, err := repo.RecordPayment(ctx, core.DebtPayment{
		ID:          "pay_1",
		DebtID:      "debt_a",
		Amount:      decimal.RequireFromString("200.55"),
		PaymentDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Notes:       "march",
		CreatedAt:   paidAt,
	})
	require.NoError(t, err)
	assert.True(t, d.CurrentBalance.Equal(decimal.RequireFromString("3000")))

	stored, err := repo.GetDebt(ctx, "debt_a")
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.Equal(decimal.RequireFromString("3000")))
	assert.True(t, stored.UpdatedAt.Equal(paidAt))

	payments, err := repo.ListPayments(ctx, "debt_a")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "march", payments[0].Notes)
	assert.True(t, payments[0].Amount.Equal(decimal.RequireFromString("200.55")))

	// Rejected payments leave no trace.
	_, err = repo.RecordPayment(ctx, core.DebtPayment{
		ID: "pay_2", DebtID: "debt_a", Amount: decimal.RequireFromString("3000.01"),
		PaymentDate: paidAt, CreatedAt: paidAt,
	})
	assert.ErrorIs(t, err, core.ErrPaymentTooLarge)
	payments, err = repo.ListPayments(ctx, "debt_a")
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = repo.RecordPayment(ctx, core.DebtPayment{
		ID: "pay_3", DebtID: "nope", Amount: decimal.RequireFromString("1"),
		PaymentDate: paidAt, CreatedAt: paidAt,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.DeleteDebt(ctx, "debt_a"))
	_, err = repo.ListPayments(ctx, "debt_a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "debts.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.CreateDebt(ctx, sampleDebt("debt_a"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.Ping(ctx))

	list, err := repo.ListDebts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debts.db")

	first, err := RunMigrations(path)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, uint(2), first.Version)

	again, err := RunMigrations(path)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, first.Version, again.Version)
}
