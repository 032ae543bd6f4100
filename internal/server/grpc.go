package server

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health key reported for the game service.
const ServiceName = "bingo.Bingo"

// Check pings one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
}

func NewGRPCServer(opts ...grpc.ServerOption) *GRPCServer {
	s := &GRPCServer{
		server: grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.SetServing(true)
	return s
}

func (s *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Watch runs checks every interval and flips the serving status until
// ctx is done.
func (s *GRPCServer) Watch(ctx context.Context, interval time.Duration, checks ...Check) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		healthy := allHealthy(ctx, checks)
		if healthy != serving {
			log.Printf("gRPC health changed: serving=%v", healthy)
			serving = healthy
		}
		s.SetServing(healthy)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func allHealthy(ctx context.Context, checks []Check) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for _, check := range checks {
		if err := check(ctx); err != nil {
			return false
		}
	}
	return true
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *GRPCServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
