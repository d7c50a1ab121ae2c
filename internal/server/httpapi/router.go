// Package httpapi exposes the DocuTrack REST API under /api.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/auth"
	"github.com/dmitrijs2005/docutrack/internal/server/certificate"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
	"github.com/dmitrijs2005/docutrack/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Me(ctx context.Context, caller auth.Identity) (*models.User, error)
}

type RequestService interface {
	Create(ctx context.Context, caller auth.Identity, nombre, cedula string) (*models.Request, error)
	Get(ctx context.Context, caller auth.Identity, id int64) (*models.Request, error)
	List(ctx context.Context, caller auth.Identity) ([]models.RequestView, error)
	AttachDocument(ctx context.Context, caller auth.Identity, requestID int64, up *services.Upload) (*models.Document, error)
	LatestDocumentURL(ctx context.Context, caller auth.Identity, id int64) (string, error)
	SetStatus(ctx context.Context, caller auth.Identity, id int64, label, note string) (*models.Request, error)
	AdminView(ctx context.Context, caller auth.Identity, id int64) (*services.AdminView, error)
}

type CertificateService interface {
	Generate(ctx context.Context, caller auth.Identity, id int64) (*certificate.Data, error)
}

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Users         UserService
	Requests      RequestService
	Certificates  CertificateService
	Logger        logging.Logger
	Secret        []byte
	CORSOrigins   []string
	MaxUploadSize int64
	StartedAt     time.Time
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) http.Handler {
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}

	authH := &authHandler{users: d.Users, logger: d.Logger}
	reqH := &requestHandler{requests: d.Requests, logger: d.Logger, maxUpload: d.MaxUploadSize}
	certH := &certificateHandler{certs: d.Certificates, logger: d.Logger, render: certificate.Render}
	healthH := &healthHandler{startedAt: d.StartedAt}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(d.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Ruta no encontrada")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.handle)

		r.Post("/auth/register", authH.register)
		r.Post("/auth/login", authH.login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d.Secret, d.Logger))

			r.Get("/auth/me", authH.me)

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", reqH.create)
				r.Get("/", reqH.list)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", reqH.get)
					r.Post("/upload", reqH.upload)
					r.Get("/file", reqH.file)
					r.Get("/admin-view", reqH.adminView)
					r.Patch("/status", reqH.setStatus)
				})
			})

			r.Get("/certificate/{id}", certH.download)
		})
	})

	return r
}

// NewServer returns an http.Server with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
