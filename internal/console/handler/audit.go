package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/xela07ax/leadops-console/internal/audit"
)

// AuditSource Описываем, что нам нужно от хранилища журнала
type AuditSource interface {
	FetchEvents(ctx context.Context, kind, status string, limit int) ([]audit.Event, error)
}

type AuditHandler struct {
	source AuditSource
}

func NewAuditHandler(source AuditSource) *AuditHandler {
	return &AuditHandler{source: source}
}

// GetTrail возвращает журнал действий оператора с поддержкой фильтрации
// GET /v1/audit?kind=...&status=...&limit=...
func (h *AuditHandler) GetTrail(w http.ResponseWriter, r *http.Request) {
	// Извлекаем фильтры из Query-параметров
	kind := r.URL.Query().Get("kind")
	status := r.URL.Query().Get("status")

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, _ = strconv.Atoi(s)
	}

	events, err := h.source.FetchEvents(r.Context(), kind, status, limit)
	if err != nil {
		http.Error(w, "Failed to fetch audit trail", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
