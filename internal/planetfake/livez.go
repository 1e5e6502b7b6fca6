package planetfake

import (
	"net/http"

	"github.com/aussiebroadwan/planet/pkg/httpx"
)

// HealthResponse is returned by /livez.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

func (s *Server) handleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  s.cfg.Now().Sub(s.startTime).String(),
		Version: BuildVersion,
	})
}
