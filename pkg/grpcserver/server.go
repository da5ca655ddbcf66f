// Package grpcserver exposes the standard gRPC health service, mirroring the
// state of the HTTP health checker.
package grpcserver

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"command-bot/backend/pkg/logger"
)

// ServiceName is the health service name reported for the bot
const ServiceName = "commandbot.Bot"

// Server wraps a grpc.Server with a health service
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *logger.Logger
}

// New creates a server whose services start out NOT_SERVING
func New(log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		log:    log.WithComponent("grpc"),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.SetServing(false)
	return s
}

// SetServing updates the status of the bot service and the overall server
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve accepts connections on lis until Stop is called
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// ListenAndServe listens on port and serves
func (s *Server) ListenAndServe(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", port, err)
	}
	return s.Serve(lis)
}

// Stop drains in-flight calls, forcing a stop when ctx expires
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}
