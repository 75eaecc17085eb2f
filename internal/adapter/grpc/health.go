package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the users API.
const ServiceName = "users.UserService"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthReporter publishes database reachability through the standard gRPC health service.
type HealthReporter struct {
	db      Pinger
	server  *health.Server
	timeout time.Duration
	log     *zap.Logger
}

// NewHealthReporter creates a reporter. Both the overall ("") and ServiceName statuses start as NOT_SERVING
// until the first Check.
func NewHealthReporter(db Pinger, log *zap.Logger) *HealthReporter {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthReporter{
		db:      db,
		server:  hs,
		timeout: 2 * time.Second,
		log:     log,
	}
}

// Server returns the health server to register on a *grpc.Server.
func (h *HealthReporter) Server() *health.Server {
	return h.server
}

// Check pings the database once and updates the published status.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("database ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks immediately and then every interval until ctx is done.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so clients drain before the listener closes.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}
