package handlers

import (
	"net/http"

	"github.com/camden-git/checkinkiosk/services"
)

type StatsHandler struct {
	Analytics *services.AnalyticsService
}

// GetStats returns kpi, series and recent at the top level next to ok.
func (sh *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := sh.Analytics.Stats()
	if err != nil {
		writeServiceError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*services.Stats
	}{OK: true, Stats: stats})
}
