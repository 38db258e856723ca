package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"debtpayoff/internal/cache"
	"debtpayoff/internal/core"
	"debtpayoff/internal/debts"
	"debtpayoff/internal/log"
	"debtpayoff/internal/payoff"
)

// PlanRequest is a payoff plan query against the current portfolio
type PlanRequest struct {
	ExtraPayment decimal.Decimal
	Strategy     string
}

// PlanResult is a simulation result and whether it came from the cache
type PlanResult struct {
	payoff.Result
	CacheHit bool
}

// PlanService computes payoff plans for the stored debts. Results are cached
// under a hash of the inputs, so a changed portfolio never hits a stale entry.
type PlanService struct {
	reader debts.DebtReader
	engine *payoff.Service
	cache  cache.Cache[[]byte]
	clock  payoff.Clock
	group  singleflight.Group
	logger *log.StructuredLogger
}

// NewPlanService creates the service. A nil cache disables caching.
func NewPlanService(reader debts.DebtReader, engine *payoff.Service, c cache.Cache[[]byte], clock payoff.Clock, logger *log.Logger) *PlanService {
	if clock == nil {
		clock = payoff.SystemClock
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &PlanService{
		reader: reader,
		engine: engine,
		cache:  c,
		clock:  clock,
		logger: log.NewStructuredLogger(logger.WithComponent(log.ComponentPayoff)),
	}
}

// Snapshots converts stored debts to simulation input
func Snapshots(list []core.Debt) []payoff.DebtSnapshot {
	out := make([]payoff.DebtSnapshot, 0, len(list))
	for _, d := range list {
		out = append(out, payoff.DebtSnapshot{
			ID:                        d.ID,
			Name:                      d.Name,
			CurrentBalance:            d.CurrentBalance,
			AnnualInterestRatePercent: d.InterestRate,
			MinimumPayment:            d.MinimumPayment,
		})
	}
	return out
}

// PlanKey identifies a simulation by its inputs and the day it starts on.
func PlanKey(snaps []payoff.DebtSnapshot, req PlanRequest, day time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s\n", req.Strategy, req.ExtraPayment.StringFixed(2), day.Format("2006-01-02"))
	for _, s := range snaps {
		fmt.Fprintf(h, "%s|%q|%s|%s|%s\n", s.ID, s.Name,
			s.CurrentBalance.StringFixed(2),
			s.AnnualInterestRatePercent.String(),
			s.MinimumPayment.StringFixed(2))
	}
	return "plan:" + hex.EncodeToString(h.Sum(nil))
}

// Plan loads the debts and returns the plan or comparison. Validation and
// perpetual debt errors from the engine are returned unchanged.
func (s *PlanService) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	if req.Strategy == "" {
		req.Strategy = payoff.StrategyBoth
	}
	list, err := s.reader.ListDebts(ctx)
	if err != nil {
		return PlanResult{}, fmt.Errorf("load debts: %w", err)
	}
	snaps := Snapshots(list)
	key := PlanKey(snaps, req, s.clock.Now())

	if res, ok := s.cached(ctx, key); ok {
		s.logger.LogPlanComputed(ctx, req.Strategy, req.ExtraPayment.StringFixed(2), totalMonths(res), true)
		return PlanResult{Result: res, CacheHit: true}, nil
	}

	// The shared run ignores caller cancellation; each caller stops waiting
	// on its own context.
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		res, err := s.engine.Run(runCtx, payoff.Request{
			Debts:        snaps,
			ExtraPayment: req.ExtraPayment,
			Strategy:     req.Strategy,
		})
		if err != nil {
			return payoff.Result{}, err
		}
		s.store(runCtx, key, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return PlanResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return PlanResult{}, r.Err
		}
		res := r.Val.(payoff.Result)
		s.logger.LogPlanComputed(ctx, req.Strategy, req.ExtraPayment.StringFixed(2), totalMonths(res), false)
		return PlanResult{Result: res}, nil
	}
}

func (s *PlanService) cached(ctx context.Context, key string) (payoff.Result, bool) {
	if s.cache == nil {
		return payoff.Result{}, false
	}
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return payoff.Result{}, false
	}
	var res payoff.Result
	if err := json.Unmarshal(data, &res); err != nil {
		s.logger.LogError(ctx, "Discarding unreadable cached plan", err, log.OpSimulate, log.NewFields())
		s.cache.Delete(ctx, key)
		return payoff.Result{}, false
	}
	return res, true
}

func (s *PlanService) store(ctx context.Context, key string, res payoff.Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		s.logger.LogError(ctx, "Failed to encode plan for cache", err, log.OpSimulate, log.NewFields())
		return
	}
	s.cache.Set(ctx, key, data)
}

// Close releases the cache when it holds a connection
func (s *PlanService) Close() error {
	if c, ok := s.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func totalMonths(res payoff.Result) int {
	switch {
	case res.Plan != nil:
		return res.Plan.TotalMonths
	case res.Comparison != nil:
		return res.Comparison.Plan(res.Comparison.Recommended).TotalMonths
	}
	return 0
}
