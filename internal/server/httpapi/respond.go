package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/logging"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

var errorStatuses = []struct {
	err      error
	status   int
	fallback string
}{
	{common.ErrorValidation, http.StatusBadRequest, "Solicitud inválida"},
	{common.ErrorPrecondition, http.StatusBadRequest, "Operación no permitida en el estado actual"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "Token inválido"},
	{common.ErrTokenExpired, http.StatusUnauthorized, "Token expirado"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "No autenticado"},
	{common.ErrorForbidden, http.StatusForbidden, "No autorizado"},
	{common.ErrorNotFound, http.StatusNotFound, "No encontrado"},
	{common.ErrorAlreadyExists, http.StatusConflict, "Ya existe"},
	{common.ErrorTooManyRequests, http.StatusTooManyRequests, "Demasiados intentos"},
}

// writeError maps a service error onto its HTTP status. The message is the
// detail attached to the sentinel; internal failures never expose detail.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			respondError(w, e.status, publicMessage(err, e.err, e.fallback))
			return
		}
	}

	if !errors.Is(err, common.ErrorInternal) {
		logger.Error(r.Context(), "unhandled error", "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	respondError(w, http.StatusInternalServerError, "Error en el servidor")
}

func publicMessage(err, sentinel error, fallback string) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == err.Error() {
		return fallback
	}
	return msg
}
