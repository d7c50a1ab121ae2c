package httpapi

import (
	"net/http"
	"time"
)

type healthHandler struct {
	startedAt time.Time
}

func (h *healthHandler) handle(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
