package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"user-management-api/cmd/api/di"
	"user-management-api/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config    *config.Config
	Logger    *zap.Logger
	Container *di.Container
	Gin       *http.Server
	GRPC      *grpc.Server // nil when GRPC_ENABLED is false
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	s := &Server{
		Config:    cfg,
		Logger:    l,
		Container: c,
		Gin:       SetupGinServer(cfg, c, ":"+cfg.App.HTTPPort, l),
	}
	if cfg.App.GRPCEnabled {
		s.GRPC = SetupGRPC(c.Health, l)
	}
	return s
}

// Start runs the REST server, the gRPC health server and the health probe loop.
// It returns when ctx is done and every listener has stopped, or on the first listener error.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("REST API running", zap.String("address", s.Gin.Addr))
		if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	})

	if s.GRPC != nil {
		g.Go(func() error {
			return s.startGRPC(ctx)
		})
		g.Go(func() error {
			s.Container.Health.Run(ctx, time.Duration(s.Config.App.HealthIntervalSeconds)*time.Second)
			return nil
		})
	}

	// ctx is also canceled when one listener fails; the other must stop for Wait to return
	g.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
			time.Duration(s.Config.App.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		if err := s.Shutdown(stopCtx); err != nil {
			s.Logger.Warn("listeners did not stop cleanly", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}

// startGRPC starts the gRPC server
func (s *Server) startGRPC(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.grpcAddress())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Logger.Info("gRPC health server running", zap.String("address", s.grpcAddress()))
	if err := s.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.Container != nil && s.Container.Health != nil {
		s.Container.Health.Shutdown()
	}

	if s.Gin != nil {
		s.Logger.Info("shutting down REST server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
		}
	}

	return errors.Join(errs...)
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
