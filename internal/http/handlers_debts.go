package http

import (
	"net/http"
	"sync/atomic"

	"debtpayoff/internal/log"
)

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	list, err := s.debts.ListDebts(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	out := make([]debtResponse, 0, len(list))
	for _, d := range list {
		out = append(out, newDebtResponse(d))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	d, err := s.debts.GetDebt(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newDebtResponse(d))
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtCreateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	d, err := s.debts.CreateDebt(r.Context(), req.toDebt())
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.debtChanges, 1)
	writeJSON(w, r, http.StatusCreated, newDebtResponse(d))
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtUpdateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	d, err := s.debts.UpdateDebt(r.Context(), r.PathValue("id"), req.toPatch())
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.debtChanges, 1)
	writeJSON(w, r, http.StatusOK, newDebtResponse(d))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.debts.DeleteDebt(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.debtChanges, 1)
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Debt deleted successfully"})
}

// handleRecordPayment lowers the balance and returns the updated debt
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpPayment, err)
		return
	}
	d, err := s.debts.RecordPayment(r.Context(), r.PathValue("id"), req.toInput())
	if err != nil {
		s.writeError(w, r, log.OpPayment, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.debtChanges, 1)
	writeJSON(w, r, http.StatusOK, newDebtResponse(d))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	list, err := s.debts.ListPayments(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	out := make([]paymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, newPaymentResponse(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.debts.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSummaryResponse(summary))
}

// handleReset restores the demo portfolio. Persistent data sources answer 409.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.debts.Reset(r.Context()); err != nil {
		s.writeError(w, r, log.OpReset, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Demo data reset"})
}
