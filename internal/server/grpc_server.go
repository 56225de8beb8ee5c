package server

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/presence-gateway/internal/config"
	_ "github.com/oggyb/presence-gateway/internal/server/rpc" // json codec
)

// Registrar attaches one service to the server.
type Registrar interface {
	Register(s *grpc.Server)
}

// NewGRPCServer builds a gRPC server with logging and auth interceptors,
// the health service and all provided services registered.
func NewGRPCServer(verifier TokenVerifier, logger *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(logger),
			AuthInterceptor(verifier),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	healthServer := health.NewServer()
	for name := range grpcServer.GetServiceInfo() {
		healthServer.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer listens on the configured address and serves srv until it stops.
func StartGRPCServer(cfg *config.Config, srv *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return srv.Serve(lis)
}
