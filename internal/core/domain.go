package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CreditCard   DebtType = "credit_card"
	PersonalLoan DebtType = "personal_loan"
	StudentLoan  DebtType = "student_loan"
	Mortgage     DebtType = "mortgage"
	CarLoan      DebtType = "car_loan"
	OtherDebt    DebtType = "other"

	// Field length limits.
	MaxNameLength  = 100
	MaxNotesLength = 1000
)

var maxInterestRate = decimal.NewFromInt(100)

type (
	DebtType string

	Debt struct {
		ID              string
		Name            string
		Type            DebtType
		OriginalBalance decimal.Decimal
		CurrentBalance  decimal.Decimal
		InterestRate    decimal.Decimal // annual percentage, 0..100
		MinimumPayment  decimal.Decimal
		DueDay          int // day of month, 1..31
		LinkedAccountID string
		Notes           string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	DebtPayment struct {
		ID          string
		DebtID      string
		Amount      decimal.Decimal
		PaymentDate time.Time
		Notes       string
		CreatedAt   time.Time
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidDebtType     = errors.New("invalid debt type")
	ErrInvalidInterestRate = errors.New("interest rate must be between 0 and 100")
	ErrInvalidDueDay       = errors.New("due day must be between 1 and 31")
	ErrBalanceAboveOrigin  = errors.New("current balance cannot exceed original balance")
	ErrPaymentTooLarge     = errors.New("payment amount cannot exceed current balance")
	ErrDebtPaidOff         = errors.New("debt is already paid off")
)

// DebtTypes lists every known debt type.
func DebtTypes() []DebtType {
	return []DebtType{CreditCard, PersonalLoan, StudentLoan, Mortgage, CarLoan, OtherDebt}
}

func (t DebtType) IsValid() bool {
	switch t {
	case CreditCard, PersonalLoan, StudentLoan, Mortgage, CarLoan, OtherDebt:
		return true
	}
	return false
}

// IsActive reports whether the debt still has a balance to pay.
func (d Debt) IsActive() bool {
	return d.CurrentBalance.IsPositive()
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if len(d.Name) > MaxNameLength {
		return fmt.Errorf("name too long (max %d characters)", MaxNameLength)
	}
	if !d.Type.IsValid() {
		return ErrInvalidDebtType
	}
	if !d.OriginalBalance.IsPositive() || d.CurrentBalance.IsNegative() || d.MinimumPayment.IsNegative() {
		return ErrInvalidAmount
	}
	if d.CurrentBalance.GreaterThan(d.OriginalBalance) {
		return ErrBalanceAboveOrigin
	}
	if d.InterestRate.IsNegative() || d.InterestRate.GreaterThan(maxInterestRate) {
		return ErrInvalidInterestRate
	}
	if d.DueDay < 1 || d.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if len(d.Notes) > MaxNotesLength {
		return fmt.Errorf("notes too long (max %d characters)", MaxNotesLength)
	}
	return nil
}

// Validate checks the payment on its own. ApplyPayment checks it against the debt.
func (p DebtPayment) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(p.Notes) > MaxNotesLength {
		return fmt.Errorf("notes too long (max %d characters)", MaxNotesLength)
	}
	return nil
}

// ApplyPayment returns the debt with the payment deducted from its current balance.
func (d Debt) ApplyPayment(p DebtPayment, now time.Time) (Debt, error) {
	if err := p.Validate(); err != nil {
		return d, err
	}
	if !d.IsActive() {
		return d, ErrDebtPaidOff
	}
	if p.Amount.GreaterThan(d.CurrentBalance) {
		return d, ErrPaymentTooLarge
	}
	d.CurrentBalance = RoundCents(d.CurrentBalance.Sub(p.Amount))
	d.UpdatedAt = now
	return d, nil
}
