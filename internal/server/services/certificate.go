package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/auth"
	"github.com/dmitrijs2005/docutrack/internal/server/certificate"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/repomanager"
)

// CertificateService renders issuance certificates for emitted requests.
type CertificateService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

// NewCertificateService wires the service to the database and repositories.
func NewCertificateService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CertificateService {
	return &CertificateService{db: db, repomanager: m, logger: logger, now: time.Now}
}

// Generate returns the certificate contents for an issued request. Nothing
// is rendered unless the request is Emitido.
func (s *CertificateService) Generate(ctx context.Context, caller auth.Identity, id int64) (*certificate.Data, error) {
	req, err := s.repomanager.Requests(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: solicitud no encontrada", common.ErrorNotFound)
		}
		s.logger.Error(ctx, "get request failed", "request_id", id, "error", err)
		return nil, common.ErrorInternal
	}

	if !caller.CanAccess(req.UserID) {
		return nil, fmt.Errorf("%w: no autorizado", common.ErrorForbidden)
	}

	if req.Status != models.StatusIssued {
		return nil, fmt.Errorf(`%w: el certificado solo está disponible cuando el estado es "Emitido"`, common.ErrorPrecondition)
	}

	nombre, cedula := req.Details.OrNA()
	return &certificate.Data{
		RequestID:     req.ID,
		CertificateID: certificate.CertificateID(req.ID),
		Nombre:        nombre,
		Cedula:        cedula,
		IssuedAt:      s.now(),
	}, nil
}
