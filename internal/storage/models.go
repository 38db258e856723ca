package storage

type Debt struct {
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

type DebtPayment struct {
	ID          string
	DebtID      string
	AmountCents int64
	PaymentDate string
	Notes       string
	CreatedAt   string
}
