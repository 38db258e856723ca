package payoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"debtpayoff/internal/log"
)

// StrategyBoth requests a comparison of every strategy.
const StrategyBoth = "both"

var maxRate = decimal.NewFromInt(100)

// Clock supplies the reference time for payoff dates.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Request is the input of a simulation run.
type Request struct {
	Debts        []DebtSnapshot
	ExtraPayment decimal.Decimal
	Strategy     string // avalanche, snowball or both
}

// Result holds either a single plan or a comparison.
type Result struct {
	GeneratedAt time.Time
	Plan        *PayoffPlan
	Comparison  *PayoffComparison
}

// PayoffDate returns the date reached after months from start.
func PayoffDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, 0)
}

// Service validates input and dispatches simulation runs.
type Service struct {
	clock  Clock
	logger *log.Logger
}

// NewService creates a simulation service. A nil clock uses SystemClock.
func NewService(clock Clock, logger *log.Logger) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		clock:  clock,
		logger: logger.WithComponent(log.ComponentPayoff),
	}
}

// Validate checks the request and returns a *ValidationError listing every
// problem, or nil.
func (s *Service) Validate(req Request) error {
	verr := &ValidationError{}

	switch req.Strategy {
	case string(Avalanche), string(Snowball), StrategyBoth:
	default:
		verr.add("strategy", "must be one of avalanche, snowball, both")
	}
	if req.ExtraPayment.IsNegative() {
		verr.add("extra_payment", "must not be negative")
	}

	seen := make(map[string]bool, len(req.Debts))
	for i, d := range req.Debts {
		field := fmt.Sprintf("debts[%d]", i)
		if strings.TrimSpace(d.ID) == "" {
			verr.add(field+".id", "must not be empty")
		} else if seen[d.ID] {
			verr.add(field+".id", "duplicate id %q", d.ID)
		}
		seen[d.ID] = true
		if strings.TrimSpace(d.Name) == "" {
			verr.add(field+".name", "must not be empty")
		}
		if d.CurrentBalance.IsNegative() {
			verr.add(field+".current_balance", "must not be negative")
		}
		if d.AnnualInterestRatePercent.IsNegative() || d.AnnualInterestRatePercent.GreaterThan(maxRate) {
			verr.add(field+".interest_rate", "must be between 0 and 100")
		}
		if d.MinimumPayment.IsNegative() {
			verr.add(field+".minimum_payment", "must not be negative")
		}
	}

	return verr.orNil()
}

// Run validates the request, drops paid-off debts and runs the requested
// strategy or the comparison. Without active debts it returns trivial plans.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if err := s.Validate(req); err != nil {
		s.logger.WarnContext(ctx, "Rejected simulation input",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err.Error())
		return Result{}, err
	}

	active := ActiveDebts(req.Debts)
	result := Result{GeneratedAt: s.clock.Now()}
	start := time.Now()

	if req.Strategy == StrategyBoth {
		var cmp PayoffComparison
		if len(active) == 0 {
			cmp = comparePlans(emptyPlan(Avalanche), emptyPlan(Snowball))
		} else {
			var err error
			cmp, err = Compare(ctx, active, req.ExtraPayment)
			if err != nil {
				s.logFailure(ctx, req, err)
				return Result{}, err
			}
		}
		result.Comparison = &cmp
		s.logger.InfoContext(ctx, "Payoff comparison computed",
			log.FieldOperation, log.OpSimulate,
			log.FieldDebtCount, len(active),
			log.FieldExtraPayment, req.ExtraPayment.StringFixed(2),
			log.FieldRecommended, cmp.Recommended.String(),
			log.FieldTotalMonths, cmp.Plan(cmp.Recommended).TotalMonths,
			log.FieldDuration, time.Since(start).Milliseconds())
		return result, nil
	}

	name := StrategyName(req.Strategy)
	plan := emptyPlan(name)
	if len(active) > 0 {
		strategy, err := StrategyFor(name)
		if err != nil {
			return Result{}, err
		}
		plan, err = Simulate(ctx, active, req.ExtraPayment, strategy)
		if err != nil {
			s.logFailure(ctx, req, err)
			return Result{}, err
		}
	}
	result.Plan = &plan
	s.logger.InfoContext(ctx, "Payoff plan computed",
		log.FieldOperation, log.OpSimulate,
		log.FieldStrategy, name.String(),
		log.FieldDebtCount, len(active),
		log.FieldExtraPayment, req.ExtraPayment.StringFixed(2),
		log.FieldTotalMonths, plan.TotalMonths,
		log.FieldDuration, time.Since(start).Milliseconds())
	return result, nil
}

func (s *Service) logFailure(ctx context.Context, req Request, err error) {
	var perr *PerpetualDebtError
	if errors.As(err, &perr) {
		s.logger.WarnContext(ctx, "Debts cannot be paid off",
			log.FieldOperation, log.OpSimulate,
			log.FieldStrategy, req.Strategy,
			log.FieldExtraPayment, req.ExtraPayment.StringFixed(2),
			log.FieldError, err.Error())
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.InfoContext(ctx, "Simulation aborted", log.FieldError, err.Error())
		return
	}
	s.logger.ErrorContext(ctx, "Simulation failed",
		log.FieldOperation, log.OpSimulate,
		log.FieldStrategy, req.Strategy,
		log.FieldErrorType, log.ErrorTypeInternal,
		log.FieldError, err.Error())
}

// ActiveDebts returns the debts with a positive balance, preserving order.
func ActiveDebts(debts []DebtSnapshot) []DebtSnapshot {
	out := make([]DebtSnapshot, 0, len(debts))
	for _, d := range debts {
		if d.CurrentBalance.IsPositive() {
			out = append(out, d)
		}
	}
	return out
}
