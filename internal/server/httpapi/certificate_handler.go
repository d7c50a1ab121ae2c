package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/certificate"
)

type certificateHandler struct {
	certs  CertificateService
	logger logging.Logger
	render func(io.Writer, certificate.Data) error
}

// download renders the whole PDF before writing headers, so rendering
// failures still produce a JSON error.
func (h *certificateHandler) download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	data, err := h.certs.Generate(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := h.render(&buf, *data); err != nil {
		h.logger.Error(r.Context(), "render certificate failed", "request_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Error al generar el certificado")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+certificate.FileName(id))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
