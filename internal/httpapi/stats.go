package httpapi

import (
	"net/http"

	"github.com/mfadel/spendwell/internal/service/stats"
)

const (
	statsWeekly  = stats.WindowWeek
	statsMonthly = stats.WindowMonth
	statsYearly  = stats.WindowYear
)

// statsWindow builds a handler for one fixed reporting window.
func (s *Server) statsWindow(window stats.Window) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			badRequest(w, "missing or invalid user_id")
			return
		}
		res, err := s.stats.Aggregate(r.Context(), caller, window)
		if err != nil {
			writeServiceErr(w, err)
			return
		}
		toJSON(w, http.StatusOK, toStatsResponse(res))
	}
}
