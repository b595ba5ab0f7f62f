package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dispatcher Описываем, что нам нужно от диспетчера действий
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]any) (string, error)
}

type ActionsHandler struct {
	dispatcher Dispatcher
}

func NewActionsHandler(d Dispatcher) *ActionsHandler {
	return &ActionsHandler{dispatcher: d}
}

type actionRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// Execute Запускает именованное действие и синхронно возвращает отчёт.
// POST /v1/actions
func (h *ActionsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid action payload", http.StatusBadRequest)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req.Action, req.Parameters)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}
