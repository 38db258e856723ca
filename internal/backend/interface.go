package backend

import (
	"context"

	"debtpayoff/internal/amqp"
	"debtpayoff/internal/debts"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger is implemented by data sources that can report readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the data source and the resources created with it
type BackendResult struct {
	Store debts.Store
	// Events is nil when AMQP is not configured or unreachable at startup.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Ready reports whether the data source answers. Sources without a
// connection are always ready.
func (r *BackendResult) Ready(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	DemoBackend   BackendType = "demo"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case DemoBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
