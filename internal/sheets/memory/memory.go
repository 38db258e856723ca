// Package memory keeps exported plans in process. The worker uses it when no
// spreadsheet is configured, so the export step still runs and logs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"debtpayoff/internal/payoff"
	ports "debtpayoff/internal/sheets"
	"debtpayoff/internal/sheets/google"
)

var _ ports.PlanExporter = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	exports int
	last    [][]any
}

func New() *Store {
	return &Store{}
}

// ExportPlan keeps the rows the Sheets client would write and returns a
// synthetic reference.
func (s *Store) ExportPlan(_ context.Context, cmp payoff.PayoffComparison, generatedAt time.Time) (string, error) {
	rows := google.Rows(cmp, generatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports++
	s.last = rows
	return fmt.Sprintf("mem:%d", s.exports), nil
}

// Exports returns how many plans were exported.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}

// Last returns a copy of the most recent export.
func (s *Store) Last() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.last))
	copy(out, s.last)
	return out
}
