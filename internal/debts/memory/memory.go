package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/core"
)

// Store is the demo data source. It starts from a fixed set of sample debts
// and can be reset to them at any time.
type Store struct {
	mu       sync.Mutex
	seed     []core.Debt
	order    []string
	debts    map[string]core.Debt
	payments map[string][]core.DebtPayment
}

// New creates a store holding the given debts. Reset restores them.
func New(seed []core.Debt) *Store {
	s := &Store{seed: append([]core.Debt(nil), seed...)}
	s.load()
	return s
}

// NewDemo creates a store seeded with the sample portfolio.
func NewDemo() *Store {
	return New(SampleDebts(time.Now().UTC()))
}

func (s *Store) load() {
	s.order = make([]string, 0, len(s.seed))
	s.debts = make(map[string]core.Debt, len(s.seed))
	s.payments = make(map[string][]core.DebtPayment)
	for _, d := range s.seed {
		s.order = append(s.order, d.ID)
		s.debts[d.ID] = d
	}
}

// ListDebts returns debts in creation order.
func (s *Store) ListDebts(_ context.Context) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Debt, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.debts[id])
	}
	return out, nil
}

func (s *Store) GetDebt(_ context.Context, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.Debt{}, fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	return d, nil
}

func (s *Store) CreateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.debts[d.ID]; exists {
		return core.Debt{}, fmt.Errorf("debt %s already exists", d.ID)
	}
	s.order = append(s.order, d.ID)
	s.debts[d.ID] = d
	return d, nil
}

func (s *Store) UpdateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debts[d.ID]; !ok {
		return core.Debt{}, fmt.Errorf("debt %s: %w", d.ID, core.ErrNotFound)
	}
	s.debts[d.ID] = d
	return d, nil
}

func (s *Store) DeleteDebt(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debts[id]; !ok {
		return fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	delete(s.debts, id)
	delete(s.payments, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// RecordPayment lowers the debt balance and appends the payment to its history.
func (s *Store) RecordPayment(_ context.Context, p core.DebtPayment) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[p.DebtID]
	if !ok {
		return core.Debt{}, fmt.Errorf("debt %s: %w", p.DebtID, core.ErrNotFound)
	}
	updated, err := d.ApplyPayment(p, p.CreatedAt)
	if err != nil {
		return core.Debt{}, err
	}
	s.debts[d.ID] = updated
	s.payments[d.ID] = append(s.payments[d.ID], p)
	return updated, nil
}

// ListPayments returns the payments of a debt, oldest first.
func (s *Store) ListPayments(_ context.Context, debtID string) ([]core.DebtPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debts[debtID]; !ok {
		return nil, fmt.Errorf("debt %s: %w", debtID, core.ErrNotFound)
	}
	return append([]core.DebtPayment(nil), s.payments[debtID]...), nil
}

// Reset discards every change since the store was created.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return nil
}

// SampleDebts returns the demo portfolio with timestamps set to now.
func SampleDebts(now time.Time) []core.Debt {
	d := func(id, name string, t core.DebtType, original, current, rate, minimum string, due int) core.Debt {
		return core.Debt{
			ID:              id,
			Name:            name,
			Type:            t,
			OriginalBalance: decimal.RequireFromString(original),
			CurrentBalance:  decimal.RequireFromString(current),
			InterestRate:    decimal.RequireFromString(rate),
			MinimumPayment:  decimal.RequireFromString(minimum),
			DueDay:          due,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	return []core.Debt{
		d("debt_demo_credit_card", "Credit Card", core.CreditCard, "25000", "18500", "20.75", "925", 15),
		d("debt_demo_store_card", "Store Card", core.CreditCard, "8000", "3100", "21", "310", 20),
		d("debt_demo_personal_loan", "Personal Loan", core.PersonalLoan, "50000", "32000", "17.5", "1650", 25),
		d("debt_demo_student_loan", "Student Loan", core.StudentLoan, "80000", "42000", "8.25", "950", 5),
		d("debt_demo_vehicle", "Vehicle Finance", core.CarLoan, "250000", "185000", "11.5", "4200", 1),
	}
}
