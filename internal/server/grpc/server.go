// Package grpc runs the grpc.health.v1 probe endpoint next to the REST API.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/docutrack/internal/logging"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "docutrack.API"

type HealthServer struct {
	address     string
	logger      logging.Logger
	health      *health.Server
	stopTimeout time.Duration
}

func NewHealthServer(a string, l logging.Logger) *HealthServer {
	return &HealthServer{
		address:     a,
		logger:      l.With("module", "grpc_health"),
		health:      health.NewServer(),
		stopTimeout: 5 * time.Second,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve reports SERVING while ctx is alive. On cancellation every service
// flips to NOT_SERVING before the server stops.
func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC health server...")
		s.health.Shutdown()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(s.stopTimeout):
			// Watch streams keep GracefulStop waiting.
			srv.Stop()
		}
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
