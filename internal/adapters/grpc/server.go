package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds the internal gRPC listener. Only the standard health
// service is registered: the platform protobuf contracts live in the shared
// contracts module, and internal callers reach this service over the HTTP
// internal API.
func NewServer() *grpc.Server {
	server := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return server
}
