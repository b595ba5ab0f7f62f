package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/xela07ax/leadops-console/internal/domain"
)

// BackendReader Описываем, что нам нужно от клиента бэкенда для
// stateless-прокси (журнал задач и отладочный поиск идут мимо стора)
type BackendReader interface {
	FetchTasks(ctx context.Context, limit int) ([]domain.TaskRecord, error)
	SearchProbe(ctx context.Context, query string, topK int) ([]domain.SearchHit, error)
}

type ProxyHandler struct {
	backend BackendReader
}

func NewProxyHandler(b BackendReader) *ProxyHandler {
	return &ProxyHandler{backend: b}
}

// GetTasks Read-only таблица журнала фоновых задач.
// GET /v1/tasks?limit=...
func (h *ProxyHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	tasks, err := h.backend.FetchTasks(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchProbe Отладочная панель векторного поиска.
// POST /v1/search/probe
func (h *ProxyHandler) SearchProbe(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid search payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}

	hits, err := h.backend.SearchProbe(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}
