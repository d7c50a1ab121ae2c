package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/auth"
	"github.com/dmitrijs2005/docutrack/internal/server/services"
)

type requestHandler struct {
	requests  RequestService
	logger    logging.Logger
	maxUpload int64
}

type createRequest struct {
	Nombre string `json:"nombre"`
	Cedula string `json:"cedula"`
}

type statusRequest struct {
	Status     string `json:"status"`
	StatusNote string `json:"status_note"`
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id inválido %q", common.ErrorValidation, raw)
	}
	return id, nil
}

func caller(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

func (h *requestHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	created, err := h.requests.Create(r.Context(), caller(r), req.Nombre, req.Cedula)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *requestHandler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.requests.List(r.Context(), caller(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *requestHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	req, err := h.requests.Get(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

// upload streams the multipart "file" part straight to the service.
func (h *requestHandler) upload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("El archivo excede el tamaño máximo de %d bytes", h.maxUpload))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			respondError(w, http.StatusBadRequest, "Formulario multipart inválido")
			return
		}
	}

	var up *services.Upload
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["file"]; len(files) > 0 {
			fh := files[0]
			f, err := fh.Open()
			if err != nil {
				writeError(w, r, h.logger, err)
				return
			}
			defer f.Close()

			contentType, err := detectContentType(fh.Header.Get("Content-Type"), fh.Filename, f)
			if err != nil {
				writeError(w, r, h.logger, err)
				return
			}
			up = &services.Upload{
				FileName:    filepath.Base(fh.Filename),
				ContentType: contentType,
				Size:        fh.Size,
				Body:        f,
			}
		}
	}

	doc, err := h.requests.AttachDocument(r.Context(), caller(r), id, up)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// detectContentType trusts the part header unless it is missing or generic,
// then falls back to the file extension and finally to content sniffing.
// Sniffing rewinds body so the whole file is still uploaded.
func detectContentType(header, fileName string, body io.ReadSeeker) (string, error) {
	if header != "" && header != "application/octet-stream" {
		return header, nil
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		return byExt, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func (h *requestHandler) file(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	url, err := h.requests.LatestDocumentURL(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *requestHandler) adminView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	view, err := h.requests.AdminView(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *requestHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	updated, err := h.requests.SetStatus(r.Context(), caller(r), id, req.Status, req.StatusNote)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Estado actualizado a \"%s\"", strings.TrimSpace(req.Status)),
		"solicitud": updated,
	})
}
