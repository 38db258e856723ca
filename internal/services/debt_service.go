package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"debtpayoff/internal/amqp"
	"debtpayoff/internal/core"
	"debtpayoff/internal/debts"
	"debtpayoff/internal/log"
)

var (
	// ErrInvalidInput wraps every rejected create, update or payment request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResetUnsupported is returned when the data source cannot be reset.
	ErrResetUnsupported = errors.New("data source does not support reset")
)

// EventPublisher announces portfolio changes to other processes
type EventPublisher interface {
	PublishDebtChanged(ctx context.Context, event amqp.DebtEvent, debtID string) error
}

// DebtPatch holds the fields of a partial update. Nil fields keep their value.
type DebtPatch struct {
	Name            *string
	Type            *core.DebtType
	OriginalBalance *decimal.Decimal
	CurrentBalance  *decimal.Decimal
	InterestRate    *decimal.Decimal
	MinimumPayment  *decimal.Decimal
	DueDay          *int
	LinkedAccountID *string
	Notes           *string
}

// Apply returns d with the patch applied
func (p DebtPatch) Apply(d core.Debt) core.Debt {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.OriginalBalance != nil {
		d.OriginalBalance = *p.OriginalBalance
	}
	if p.CurrentBalance != nil {
		d.CurrentBalance = *p.CurrentBalance
	}
	if p.InterestRate != nil {
		d.InterestRate = *p.InterestRate
	}
	if p.MinimumPayment != nil {
		d.MinimumPayment = *p.MinimumPayment
	}
	if p.DueDay != nil {
		d.DueDay = *p.DueDay
	}
	if p.LinkedAccountID != nil {
		d.LinkedAccountID = *p.LinkedAccountID
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}
	return d
}

// PaymentInput is a payment as submitted by a client
type PaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate *time.Time
	Notes       string
}

// DebtService orchestrates debt operations across the data source and AMQP
type DebtService struct {
	store     debts.Store
	publisher EventPublisher
	now       func() time.Time
	logger    *log.Logger
	changes   *log.StructuredLogger
}

// NewDebtService creates the service. A nil publisher disables events.
func NewDebtService(store debts.Store, publisher EventPublisher, logger *log.Logger) *DebtService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDebt)
	return &DebtService{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
		changes:   log.NewStructuredLogger(logger),
	}
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func normalize(d core.Debt) core.Debt {
	d.Name = strings.TrimSpace(d.Name)
	d.OriginalBalance = core.RoundCents(d.OriginalBalance)
	d.CurrentBalance = core.RoundCents(d.CurrentBalance)
	d.MinimumPayment = core.RoundCents(d.MinimumPayment)
	return d
}

func (s *DebtService) ListDebts(ctx context.Context) ([]core.Debt, error) {
	list, err := s.store.ListDebts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return list, nil
}

func (s *DebtService) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	return s.store.GetDebt(ctx, id)
}

// CreateDebt assigns an id and timestamps, stores the debt and publishes the change
func (s *DebtService) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	now := s.now()
	d = normalize(d)
	d.ID = newID("debt")
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := d.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	created, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("save debt: %w", err)
	}
	s.changed(ctx, log.OpCreate, amqp.EventDebtCreated, created)
	return created, nil
}

// UpdateDebt applies a partial update
func (s *DebtService) UpdateDebt(ctx context.Context, id string, patch DebtPatch) (core.Debt, error) {
	existing, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return core.Debt{}, err
	}
	d := normalize(patch.Apply(existing))
	d.UpdatedAt = s.now()
	if err := d.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	updated, err := s.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	s.changed(ctx, log.OpUpdate, amqp.EventDebtUpdated, updated)
	return updated, nil
}

func (s *DebtService) DeleteDebt(ctx context.Context, id string) error {
	existing, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	s.changed(ctx, log.OpDelete, amqp.EventDebtDeleted, existing)
	return nil
}

// RecordPayment lowers the balance of a debt. The payment date defaults to today.
func (s *DebtService) RecordPayment(ctx context.Context, debtID string, in PaymentInput) (core.Debt, error) {
	now := s.now()
	p := core.DebtPayment{
		ID:        newID("pay"),
		DebtID:    debtID,
		Amount:    core.RoundCents(in.Amount),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
	}
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	} else {
		p.PaymentDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if err := p.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	updated, err := s.store.RecordPayment(ctx, p)
	switch {
	case errors.Is(err, core.ErrPaymentTooLarge), errors.Is(err, core.ErrDebtPaidOff):
		return core.Debt{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case err != nil:
		return core.Debt{}, err
	}
	s.changed(ctx, log.OpPayment, amqp.EventDebtPayment, updated)
	return updated, nil
}

func (s *DebtService) ListPayments(ctx context.Context, debtID string) ([]core.DebtPayment, error) {
	return s.store.ListPayments(ctx, debtID)
}

// Summary aggregates the current portfolio
func (s *DebtService) Summary(ctx context.Context) (core.DebtSummary, error) {
	list, err := s.ListDebts(ctx)
	if err != nil {
		return core.DebtSummary{}, err
	}
	return core.Summarize(list), nil
}

// CanReset reports whether the data source supports Reset
func (s *DebtService) CanReset() bool {
	_, ok := s.store.(debts.Resetter)
	return ok
}

// Reset restores the demo data
func (s *DebtService) Reset(ctx context.Context) error {
	r, ok := s.store.(debts.Resetter)
	if !ok {
		return ErrResetUnsupported
	}
	if err := r.Reset(ctx); err != nil {
		return fmt.Errorf("reset data source: %w", err)
	}
	s.logger.InfoContext(ctx, "Demo data reset", log.FieldOperation, log.OpReset)
	s.publish(ctx, amqp.EventDebtsReset, "")
	return nil
}

func (s *DebtService) changed(ctx context.Context, op string, event amqp.DebtEvent, d core.Debt) {
	s.changes.LogDebtChanged(ctx, op, d.ID, d.Name, core.FormatAmount(d.CurrentBalance))
	s.publish(ctx, event, d.ID)
}

// publish never fails the request: the change is already stored.
func (s *DebtService) publish(ctx context.Context, event amqp.DebtEvent, debtID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDebtChanged(ctx, event, debtID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish debt change",
			log.FieldEvent, string(event),
			log.FieldDebtID, debtID,
			log.FieldError, err.Error())
	}
}
