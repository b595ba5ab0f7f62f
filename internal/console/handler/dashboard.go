package handler

import (
	"net/http"

	"github.com/xela07ax/leadops-console/internal/console/service"
)

type DashboardHandler struct {
	store *service.DiagnosticsStore
}

func NewDashboardHandler(store *service.DiagnosticsStore) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// GetDashboard Полный снимок состояния консоли для панели «одним взглядом».
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Dashboard())
}

// GetHealth Вью здоровья отдельно.
func (h *DashboardHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.HealthView())
}
