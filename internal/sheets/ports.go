// Package sheets defines the outbound port for exporting payoff plans to a
// spreadsheet.
package sheets

import (
	"context"
	"time"

	"debtpayoff/internal/payoff"
)

// Ports for outbound adapters.
type (
	// PlanExporter writes the recommended plan of a comparison. The previous
	// export is replaced, not appended to.
	PlanExporter interface {
		ExportPlan(ctx context.Context, cmp payoff.PayoffComparison, generatedAt time.Time) (ref string, err error)
	}
)
