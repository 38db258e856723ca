package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"debtpayoff/internal/log"
)

// PlanCacheHeader tells clients whether the plan came from the cache
const PlanCacheHeader = "X-Plan-Cache"

var errEmptyResult = errors.New("simulation returned neither a plan nor a comparison")

// handlePayoffPlan answers with a single plan for "avalanche" or "snowball"
// and with a comparison for "both" (the default).
func (s *Server) handlePayoffPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	// An empty body asks for the default comparison with no extra payment
	if r.ContentLength != 0 {
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, log.OpSimulate, err)
			return
		}
	}

	res, err := s.plans.Plan(r.Context(), req.toPlanRequest())
	if err != nil {
		s.writeError(w, r, log.OpSimulate, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.plansServed, 1)
	if res.CacheHit {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		w.Header().Set(PlanCacheHeader, "hit")
	} else {
		atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
		w.Header().Set(PlanCacheHeader, "miss")
	}

	switch {
	case res.Comparison != nil:
		writeJSON(w, r, http.StatusOK, newComparisonResponse(*res.Comparison, res.GeneratedAt))
	case res.Plan != nil:
		writeJSON(w, r, http.StatusOK, newPlanResponse(*res.Plan, res.GeneratedAt))
	default:
		s.writeError(w, r, log.OpSimulate, errEmptyResult)
	}
}
