package planetfake

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/planet/pkg/httpx"
)

func (s *Server) handleCurrentTier(w http.ResponseWriter, r *http.Request) {
	now := s.cfg.Now().In(s.cfg.Location)

	tier, err := s.state.tier(subject(r), now.Year(), now.Month())
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tier)
}

func (s *Server) handleTierForMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 2000 || year > 9999 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid month")
		return
	}

	tier, err := s.state.tier(subject(r), year, time.Month(month))
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tier)
}
