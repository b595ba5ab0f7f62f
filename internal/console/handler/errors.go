package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/leadops-console/internal/console/service"
	"github.com/xela07ax/leadops-console/internal/domain"
)

type ErrorsHandler struct {
	store *service.DiagnosticsStore
}

func NewErrorsHandler(store *service.DiagnosticsStore) *ErrorsHandler {
	return &ErrorsHandler{store: store}
}

// GetErrors Текущий журнал ошибок вместе с активным фильтром.
func (h *ErrorsHandler) GetErrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ErrorsView())
}

// UpdateFilter Заменяет выбор фильтров. Стор сам решает, было ли это
// изменением; в ответе уже перечитанный журнал.
// PUT /v1/errors/filter
func (h *ErrorsHandler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	var req domain.FilterSelection
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid filter payload", http.StatusBadRequest)
		return
	}

	// Пустые строки трактуем как ALL
	if req.Severity == "" {
		req.Severity = domain.FilterAll
	}
	if req.ErrorType == "" {
		req.ErrorType = domain.FilterAll
	}
	if !validSeverity(req.Severity) {
		http.Error(w, "severity must be one of ALL, CRITICAL, HIGH, MEDIUM, LOW", http.StatusBadRequest)
		return
	}

	h.store.SetFilter(r.Context(), req)
	writeJSON(w, http.StatusOK, h.store.ErrorsView())
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

// Resolve Помечает ошибку решённой. Заметки опциональны.
// POST /v1/errors/{errorID}/resolve
func (h *ErrorsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	errorID := chi.URLParam(r, "errorID")
	if errorID == "" {
		http.Error(w, "errorID is required", http.StatusBadRequest)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid resolve payload", http.StatusBadRequest)
		return
	}

	if err := h.store.Resolve(r.Context(), errorID, req.Notes); err != nil {
		writeError(w, err)
		return
	}

	// Журнал уже перечитан стором, отдаём свежий
	writeJSON(w, http.StatusOK, h.store.ErrorsView())
}

func validSeverity(s string) bool {
	switch s {
	case domain.FilterAll, domain.SeverityCritical, domain.SeverityHigh,
		domain.SeverityMedium, domain.SeverityLow:
		return true
	}
	return false
}
