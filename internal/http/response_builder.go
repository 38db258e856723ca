// Package http provides the JSON API over the debt and plan services.
//
// This file maps service and engine errors to status codes and the error
// body every endpoint shares:
//
//	{"error": "...", "code": "validation_error", "details": [{"field": "...", "message": "..."}]}
package http

import (
	"context"
	"errors"
	"net/http"

	"debtpayoff/internal/core"
	"debtpayoff/internal/log"
	"debtpayoff/internal/payoff"
	"debtpayoff/internal/services"
)

const (
	codeValidation    = "validation_error"
	codePerpetualDebt = "perpetual_debt"
	codeNotFound      = "not_found"
	codeConflict      = "conflict"
	codeRateLimited   = "rate_limited"
	codeCanceled      = "request_canceled"
	codeInternal      = "internal_error"
)

// statusClientClosedRequest is reported when the caller went away before the
// response was ready. Nothing reads it except the access log.
const statusClientClosedRequest = 499

type errorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string        `json:"error"`
	Code    string        `json:"code"`
	Details []errorDetail `json:"details,omitempty"`
}

// errorResponse returns the status and body for err. Unknown errors become a
// generic 500 so internals never leak to clients.
func errorResponse(err error) (int, errorBody) {
	var validationErr *payoff.ValidationError
	var perpetualErr *payoff.PerpetualDebtError
	var requestErr *requestError

	switch {
	case errors.As(err, &requestErr):
		return requestErr.status, errorBody{Error: requestErr.message, Code: codeValidation, Details: requestErr.details}
	case errors.As(err, &validationErr):
		details := make([]errorDetail, 0, len(validationErr.Problems))
		for _, p := range validationErr.Problems {
			details = append(details, errorDetail{Field: p.Field, Message: p.Message})
		}
		return http.StatusUnprocessableEntity, errorBody{Error: "invalid payoff plan request", Code: codeValidation, Details: details}
	case errors.As(err, &perpetualErr):
		details := make([]errorDetail, 0, len(perpetualErr.Debts))
		for _, d := range perpetualErr.Debts {
			details = append(details, errorDetail{
				Field: d.ID,
				Message: "minimum payment " + core.FormatAmount(d.MinimumPayment) +
					" does not cover monthly interest " + core.FormatAmount(d.MonthlyInterest) +
					"; increase the extra payment",
			})
		}
		return http.StatusUnprocessableEntity, errorBody{Error: "debts cannot be paid off with the available payments", Code: codePerpetualDebt, Details: details}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "Debt not found", Code: codeNotFound}
	case errors.Is(err, services.ErrResetUnsupported):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: codeConflict}
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: codeValidation}
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, errorBody{Error: "request canceled", Code: codeCanceled}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal server error", Code: codeInternal}
	}
}

// writeError writes the error body for err and logs server-side failures
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		sl := log.NewStructuredLogger(log.FromContext(r.Context()).WithComponent(log.ComponentHTTP))
		sl.LogError(r.Context(), "Request failed", err, op,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
	}
	writeJSON(w, r, status, body)
}
