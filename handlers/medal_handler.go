package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/faculty-games/middleware"
	"github.com/Dosada05/faculty-games/services"
)

type MedalHandler struct {
	tallyService services.TallyService
}

func NewMedalHandler(ts services.TallyService) *MedalHandler {
	return &MedalHandler{tallyService: ts}
}

func (h *MedalHandler) GetMedalTally(w http.ResponseWriter, r *http.Request) {
	tally, err := h.tallyService.MedalTally(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err = writeJSON(w, http.StatusOK, jsonResponse{"medal_tally": tally}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListStandings: ?competition_id= сужает выборку до одного соревнования.
func (h *MedalHandler) ListStandings(w http.ResponseWriter, r *http.Request) {
	var competitionID *string
	if id := strings.TrimSpace(r.URL.Query().Get("competition_id")); id != "" {
		competitionID = &id
	}

	standings, err := h.tallyService.Standings(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err = writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MedalHandler) Sync(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.GetUserIDFromContext(r.Context())

	report, err := h.tallyService.Sync(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Medal sync requested",
		slog.String("admin_id", adminID),
		slog.Int("matches_processed", report.MatchesProcessed),
		slog.Int("awards_granted", report.AwardsGranted),
	)
	if err = writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MedalHandler) Reset(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.tallyService.Reset(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	slog.WarnContext(r.Context(), "Medal standings reset", slog.String("admin_id", adminID))
	w.WriteHeader(http.StatusNoContent)
}
