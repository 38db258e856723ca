package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"debtpayoff/internal/log"
	"debtpayoff/internal/middleware/ratelimit"
	"debtpayoff/internal/middleware/security"
	"debtpayoff/internal/middleware/trace"
	"debtpayoff/internal/services"
)

// Options configures the server. Zero values select defaults.
type Options struct {
	RateLimitPerMinute int
	// AllowedOrigins receive CORS headers; empty disables CORS.
	AllowedOrigins []string
	// Ready reports whether the data source is reachable. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
}

type appMetrics struct {
	uptime      time.Time
	debtChanges int64
	plansServed int64
	cacheHits   int64
	cacheMisses int64
}

type Server struct {
	http.Server
	debts    *services.DebtService
	plans    *services.PlanService
	ready    func(ctx context.Context) error
	validate *validator.Validate
	logger   *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, debtSvc *services.DebtService, planSvc *services.PlanService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	limits := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = opts.RateLimitPerMinute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		debts:            debtSvc,
		plans:            planSvc,
		ready:            opts.Ready,
		validate:         newValidator(),
		logger:           logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(limits),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /debts", s.handleListDebts)
	mux.HandleFunc("POST /debts", s.handleCreateDebt)
	mux.HandleFunc("GET /debts/summary/total", s.handleSummary)
	mux.HandleFunc("POST /debts/payoff-plan", s.handlePayoffPlan)
	mux.HandleFunc("GET /debts/{id}", s.handleGetDebt)
	mux.HandleFunc("PUT /debts/{id}", s.handleUpdateDebt)
	mux.HandleFunc("DELETE /debts/{id}", s.handleDeleteDebt)
	mux.HandleFunc("POST /debts/{id}/payment", s.handleRecordPayment)
	mux.HandleFunc("GET /debts/{id}/payments", s.handleListPayments)
	mux.HandleFunc("POST /demo/reset", s.handleReset)

	// Outermost first: tracing, headers, detection, then limits on writes.
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.IsMutating, s.handleRateLimited)(handler)
	handler = s.securityDetector.Middleware(handler)
	headers := security.DefaultHeadersConfig()
	headers.AllowedOrigins = opts.AllowedOrigins
	handler = security.NewHeadersMiddleware(headers).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	} else {
		checks["backend"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	writeMetric(w, "debt_changes_total", "Debts created, updated, deleted or paid", "counter", atomic.LoadInt64(&s.appMetrics.debtChanges))
	writeMetric(w, "payoff_plans_total", "Payoff plans served", "counter", atomic.LoadInt64(&s.appMetrics.plansServed))
	writeMetric(w, "plan_cache_hits_total", "Payoff plans served from cache", "counter", atomic.LoadInt64(&s.appMetrics.cacheHits))
	writeMetric(w, "plan_cache_misses_total", "Payoff plans computed", "counter", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	writeMetric(w, "rate_limit_hits_total", "Total rate limit hits", "counter", rateLimitMetrics.TotalHits)
	writeMetric(w, "suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	writeMetric(w, "active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	writeMetric(w, "uptime_seconds", "Application uptime in seconds", "gauge", int64(time.Since(s.appMetrics.uptime).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, help, kind string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusTooManyRequests, errorBody{
		Error: "rate limit exceeded, please try again later",
		Code:  codeRateLimited,
	})
}

// writeJSON encodes v with the given status. The header is already sent when
// encoding fails, so the failure is only logged.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).DebugContext(r.Context(),
			"Failed to write response body",
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, err.Error())
	}
}
