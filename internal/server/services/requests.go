package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/dbx"
	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/auth"
	"github.com/dmitrijs2005/docutrack/internal/server/config"
	"github.com/dmitrijs2005/docutrack/internal/server/filestore"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/repomanager"
)

// Upload is a file received for a request.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// AdminView is a request with its owner and every uploaded document,
// newest document first.
type AdminView struct {
	Solicitud  *models.RequestWithOwner `json:"solicitud"`
	Documentos []models.Document        `json:"documentos"`
}

// RequestService manages document requests, their uploads and status.
type RequestService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	store            filestore.Store
	logger           logging.Logger
	presignDownloads bool
}

// NewRequestService builds a RequestService. cfg decides whether
// download links are presigned.
func NewRequestService(db *sql.DB, m repomanager.RepositoryManager, store filestore.Store, cfg *config.Config, logger logging.Logger) *RequestService {
	return &RequestService{
		db:               db,
		repomanager:      m,
		store:            store,
		logger:           logger,
		presignDownloads: cfg.S3PresignDownloads,
	}
}

// Create opens a new pending request owned by caller.
func (s *RequestService) Create(ctx context.Context, caller auth.Identity, nombre, cedula string) (*models.Request, error) {
	nombre, cedula = strings.TrimSpace(nombre), strings.TrimSpace(cedula)
	if nombre == "" || cedula == "" {
		return nil, fmt.Errorf("%w: nombre y cédula son requeridos", common.ErrorValidation)
	}

	req, err := s.repomanager.Requests(s.db).Create(ctx, &models.Request{
		UserID:      caller.ID,
		RequestType: models.RequestTypeSimpleCertificate,
		Status:      models.StatusPending,
		Details:     models.Details{Nombre: nombre, Cedula: cedula},
	})
	if err != nil {
		return nil, s.internal(ctx, "create request", err, "user_id", caller.ID)
	}

	s.logger.Info(ctx, "request created", "request_id", req.ID, "user_id", caller.ID)
	return req, nil
}

// Get returns a request visible to caller.
func (s *RequestService) Get(ctx context.Context, caller auth.Identity, id int64) (*models.Request, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(req.UserID) {
		return nil, fmt.Errorf("%w: no autorizado", common.ErrorForbidden)
	}
	return req, nil
}

// List returns every request for an admin, or the caller's own requests
// otherwise.
func (s *RequestService) List(ctx context.Context, caller auth.Identity) ([]models.RequestView, error) {
	repo := s.repomanager.Requests(s.db)

	var (
		views []models.RequestView
		err   error
	)
	if caller.IsAdmin() {
		views, err = repo.ListAll(ctx)
	} else {
		views, err = repo.ListByUser(ctx, caller.ID)
	}
	if err != nil {
		return nil, s.internal(ctx, "list requests", err, "user_id", caller.ID)
	}
	return views, nil
}

// AttachDocument stores the upload and records it against the request.
func (s *RequestService) AttachDocument(ctx context.Context, caller auth.Identity, requestID int64, up *Upload) (*models.Document, error) {
	if _, err := s.Get(ctx, caller, requestID); err != nil {
		return nil, err
	}
	if up == nil || up.Body == nil {
		return nil, fmt.Errorf("%w: archivo requerido", common.ErrorValidation)
	}

	key := filestore.NewKey(requestID, up.FileName)
	url, err := s.store.Put(ctx, key, up.ContentType, up.Body, up.Size)
	if err != nil {
		return nil, s.internal(ctx, "store upload", err, "request_id", requestID)
	}

	doc, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{
		RequestID:  requestID,
		FileName:   up.FileName,
		FileURL:    url,
		FileType:   models.KindFromMIME(up.ContentType),
		StorageKey: key,
	})
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Error(ctx, "orphaned upload", "storage_key", key, "error", derr)
		}
		return nil, s.internal(ctx, "record document", err, "request_id", requestID, "storage_key", key)
	}

	s.logger.Info(ctx, "document attached", "request_id", requestID, "document_id", doc.ID, "file_type", doc.FileType)
	return doc, nil
}

// LatestDocumentURL returns where the most recent upload of a request can
// be downloaded.
func (s *RequestService) LatestDocumentURL(ctx context.Context, caller auth.Identity, id int64) (string, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return "", err
	}

	doc, err := s.repomanager.Documents(s.db).Latest(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: no hay documentos para esta solicitud", common.ErrorNotFound)
		}
		return "", s.internal(ctx, "latest document", err, "request_id", id)
	}

	if s.presignDownloads && doc.StorageKey != "" {
		url, err := s.store.PresignGet(ctx, doc.StorageKey)
		if err != nil {
			return "", s.internal(ctx, "presign document", err, "request_id", id)
		}
		return url, nil
	}
	return doc.FileURL, nil
}

// SetStatus moves a request to the status named by label. Only admins may
// do this; any status may follow any other.
func (s *RequestService) SetStatus(ctx context.Context, caller auth.Identity, id int64, label, note string) (*models.Request, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: solo administradores", common.ErrorForbidden)
	}

	status, err := models.ParseStatus(label)
	if err != nil {
		return nil, err
	}

	var notePtr *string
	if n := strings.TrimSpace(note); n != "" {
		notePtr = &n
	}

	req, err := s.repomanager.Requests(s.db).UpdateStatus(ctx, id, status, notePtr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: solicitud no encontrada", common.ErrorNotFound)
		}
		return nil, s.internal(ctx, "update status", err, "request_id", id)
	}

	s.logger.Info(ctx, "request status changed", "request_id", id, "status", status, "admin_id", caller.ID)
	return req, nil
}

// AdminView reads a request, its owner and its documents in one snapshot.
func (s *RequestService) AdminView(ctx context.Context, caller auth.Identity, id int64) (*AdminView, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: solo administradores", common.ErrorForbidden)
	}

	view := &AdminView{}
	err := dbx.WithReadTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		req, err := s.repomanager.Requests(tx).GetWithOwner(ctx, id)
		if err != nil {
			return err
		}
		docs, err := s.repomanager.Documents(tx).ListByRequest(ctx, id)
		if err != nil {
			return err
		}
		view.Solicitud, view.Documentos = req, docs
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: solicitud no encontrada", common.ErrorNotFound)
		}
		return nil, s.internal(ctx, "admin view", err, "request_id", id)
	}
	return view, nil
}

func (s *RequestService) load(ctx context.Context, id int64) (*models.Request, error) {
	req, err := s.repomanager.Requests(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: solicitud no encontrada", common.ErrorNotFound)
		}
		return nil, s.internal(ctx, "get request", err, "request_id", id)
	}
	return req, nil
}

func (s *RequestService) internal(ctx context.Context, op string, err error, args ...any) error {
	s.logger.Error(ctx, op+" failed", append(args, "error", err)...)
	return common.ErrorInternal
}
