package handlers

import (
	"net/http"

	"github.com/Dosada05/faculty-games/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(s services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: s}
}

func (h *DashboardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.dashboardService.Snapshot(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err = writeJSON(w, http.StatusOK, snapshot, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
