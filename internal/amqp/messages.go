package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// DebtEvent names what happened to a debt.
type DebtEvent string

const (
	EventDebtCreated DebtEvent = "debt.created"
	EventDebtUpdated DebtEvent = "debt.updated"
	EventDebtDeleted DebtEvent = "debt.deleted"
	EventDebtPayment DebtEvent = "debt.payment"
	EventDebtsReset  DebtEvent = "debts.reset"
)

func (e DebtEvent) IsValid() bool {
	switch e {
	case EventDebtCreated, EventDebtUpdated, EventDebtDeleted, EventDebtPayment, EventDebtsReset:
		return true
	}
	return false
}

// DebtChangedMessage tells consumers that the portfolio changed. It carries
// only the id; consumers re-read the current debts from the data source.
type DebtChangedMessage struct {
	Event     DebtEvent `json:"event"`
	DebtID    string    `json:"debt_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDebtChangedMessage creates a message stamped with the current time
func NewDebtChangedMessage(event DebtEvent, debtID string) *DebtChangedMessage {
	return &DebtChangedMessage{
		Event:     event,
		DebtID:    debtID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DebtChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DebtChangedMessageFromJSON parses and checks a message body
func DebtChangedMessageFromJSON(data []byte) (*DebtChangedMessage, error) {
	var msg DebtChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Event.IsValid() {
		return nil, fmt.Errorf("unknown debt event %q", msg.Event)
	}
	return &msg, nil
}
