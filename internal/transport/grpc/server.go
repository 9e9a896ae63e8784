package transportgrpc

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/grpc/interceptors"
)

// ServerDependencies carries the collaborators wired into the operational gRPC listener.
type ServerDependencies struct {
	Logger  *zap.Logger
	Metrics *interceptors.GRPCMetrics
	Tracing *interceptors.TracingOptions
}

// Server exposes the standard gRPC health service and reflection next to the HTTP API.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

func NewServer(deps ServerDependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryUnaryInterceptor(logger),
			deps.Metrics.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			deps.Metrics.StreamServerInterceptor(),
		),
	}
	if deps.Tracing != nil {
		opts = append(opts, interceptors.TracingServerOption(*deps.Tracing))
	}

	server := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return &Server{grpc: server, health: healthServer, logger: logger}
}

// SetServing flips the overall health status reported to gRPC health probes.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Serve marks the server healthy and blocks until the listener is closed.
func (s *Server) Serve(lis net.Listener) error {
	s.SetServing(true)
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// GracefulStop reports NOT_SERVING to watchers and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Shutdown stops gracefully and falls back to a hard stop when ctx expires first,
// e.g. while health Watch streams are still open.
func (s *Server) Shutdown(ctx context.Context) {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.logger.Warn("gRPC graceful stop timed out, forcing stop")
		s.grpc.Stop()
		<-stopped
	}
}
