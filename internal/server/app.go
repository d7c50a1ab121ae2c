// Package server assembles the DocuTrack process: database and migrations,
// object storage, the login limiter, the REST API and the optional gRPC
// health probe. Run blocks until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/config"
	"github.com/dmitrijs2005/docutrack/internal/server/filestore"
	"github.com/dmitrijs2005/docutrack/internal/server/httpapi"
	"github.com/dmitrijs2005/docutrack/internal/server/ratelimit"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docutrack/internal/server/services"

	gs "github.com/dmitrijs2005/docutrack/internal/server/grpc"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler http.Handler
}

// openDB is a seam for testing repomanager.Open.
var openDB = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Env)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := filestore.NewS3Store(ctx, filestore.Options{
		Region:     c.S3Region,
		AccessKey:  c.S3RootUser,
		SecretKey:  c.S3RootPassword,
		Endpoint:   c.S3BaseEndpoint,
		Bucket:     c.S3Bucket,
		PublicURL:  c.S3PublicURL,
		PresignTTL: c.DownloadURLTTL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("file store init error: %w", err)
	}

	limiter, client, err := newLimiter(ctx, c)
	if err != nil {
		db.Close()
		return nil, err
	}

	app := newApp(c, logger, db, rm, store, limiter)
	app.redis = client
	return app, nil
}

// newLimiter selects Redis when a URL is configured and falls back to a
// process-local limiter otherwise.
func newLimiter(ctx context.Context, c *config.Config) (ratelimit.Limiter, *redis.Client, error) {
	if c.RedisURL == "" {
		return ratelimit.NewInMemory(c.LoginWindow), nil, nil
	}
	client, err := ratelimit.Connect(ctx, c.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis init error: %w", err)
	}
	return ratelimit.NewRedis(client, c.LoginWindow), client, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, store filestore.Store, limiter ratelimit.Limiter) *App {
	handler := httpapi.NewRouter(httpapi.Deps{
		Users:         services.NewUserService(db, rm, c, limiter, logger),
		Requests:      services.NewRequestService(db, rm, store, c, logger),
		Certificates:  services.NewCertificateService(db, rm, logger),
		Logger:        logger,
		Secret:        []byte(c.SecretKey),
		CORSOrigins:   c.CORSOrigins,
		MaxUploadSize: c.MaxUploadSize,
		StartedAt:     time.Now(),
	})

	return &App{config: c, logger: logger, db: db, handler: handler}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := httpapi.NewServer(app.config.HTTPAddr, app.handler)

	go func() {
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then releases the database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.close()

	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(context.Background(), "redis close", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close", "error", err)
		}
	}
}
