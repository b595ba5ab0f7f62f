package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/leadops-console/internal/backend"
	"github.com/xela07ax/leadops-console/internal/console/service"
)

// writeJSON Единая сериализация ответов.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError Маппинг ошибок на HTTP-статусы: валидация — 400,
// неизвестная сущность — 404, сбой бэкенда — 502, остановленный стор — 503.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var be *backend.Error
	switch {
	case errors.Is(err, service.ErrBlankLeadID) || errors.Is(err, service.ErrBlankAction):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrStoreClosed):
		status = http.StatusServiceUnavailable
	case errors.As(err, &be):
		if be.NotFound() {
			status = http.StatusNotFound
		} else {
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
