package kernel

import (
	"net/http"

	"github.com/manthysbr/icebreaker/internal/config"
	"gopkg.in/yaml.v3"
)

// handleGetSettings serves the effective configuration with secrets masked.
// GET /v1/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotFound, "settings not available", "NotFound", "")
		return
	}

	out, err := yaml.Marshal(config.Masked(s.settings))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "internal", "")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(out)
}
