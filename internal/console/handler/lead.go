package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/leadops-console/internal/console/service"
)

type LeadHandler struct {
	store *service.DiagnosticsStore
}

func NewLeadHandler(store *service.DiagnosticsStore) *LeadHandler {
	return &LeadHandler{store: store}
}

// GetDiagnostics Синхронный поиск диагностики лида: результат уходит в
// ответ, вью-состояние стора обновляется тем же вызовом.
// GET /v1/leads/{leadID}/diagnostics
func (h *LeadHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	diag, err := h.store.LookupLead(r.Context(), leadID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, diag)
}
