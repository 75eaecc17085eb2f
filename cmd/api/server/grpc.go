package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "user-management-api/internal/adapter/grpc"
	"user-management-api/pkg/logger"
)

// SetupGRPC creates the gRPC server exposing the standard health service
func SetupGRPC(health *grpcadapter.HealthReporter, l *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, health.Server())
	reflection.Register(grpcServer)

	l.Info("gRPC health service registered", zap.String("service", grpcadapter.ServiceName))
	return grpcServer
}
