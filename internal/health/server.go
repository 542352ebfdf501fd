// Package health exposes service health over the standard gRPC health protocol.
package health

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kneutral-org/inventory-dashboard/internal/logging"
	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// TopologyService is the health service name tracking topology refreshes.
const TopologyService = "topology"

// Server wraps a gRPC server carrying the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger zerolog.Logger
}

// Options configures the gRPC server.
type Options struct {
	MaxMessageSize int
}

// NewServer creates the gRPC server. Both the overall and the topology
// service start NOT_SERVING until the first topology refresh reports.
func NewServer(opts Options, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "grpc-health").Logger()

	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(logging.GRPCLogger(logger)),
		grpc.ChainStreamInterceptor(logging.GRPCStreamLogger(logger)),
	}
	if opts.MaxMessageSize > 0 {
		serverOpts = append(serverOpts,
			grpc.MaxRecvMsgSize(opts.MaxMessageSize),
			grpc.MaxSendMsgSize(opts.MaxMessageSize),
		)
	}

	s := &Server{
		grpc:   grpc.NewServer(serverOpts...),
		health: health.NewServer(),
		logger: logger,
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(TopologyService, healthpb.HealthCheckResponse_NOT_SERVING)

	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// ObserveRefresh follows a topology refresh outcome. It has the signature of
// topology.Cache.OnRefresh.
func (s *Server) ObserveRefresh(_ *topology.Topology, err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(TopologyService, status)
	s.logger.Debug().Str("status", status.String()).Msg("health status updated")
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls. If ctx
// expires first the server is stopped hard.
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
