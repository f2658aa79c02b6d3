// Package grpcserver exposes the task service over gRPC next to the standard
// health service.
package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"taskTracker/internal/auth"
	"taskTracker/internal/service"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// NewServer builds a gRPC server with logging and authentication interceptors,
// the health service and TaskService registered.
func NewServer(authn *auth.Authenticator, tasks *service.TaskService, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		loggingInterceptor(logger),
		auth.NewUnaryAuthInterceptor(authn, healthCheckMethod),
	))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	RegisterTaskServiceServer(srv, &TaskServer{Tasks: tasks})
	hs.SetServingStatus(TaskServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

// StartGRPC starts the gRPC server on addr and returns a shutdown function.
func StartGRPC(addr string, authn *auth.Authenticator, tasks *service.TaskService, logger *slog.Logger) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":50051"
	}
	if logger == nil {
		logger = slog.Default()
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	// Plaintext; terminate TLS in front of the server.
	srv := NewServer(authn, tasks, logger)

	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Info("grpc server listening", slog.String("address", lis.Addr().String()))

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}

// loggingInterceptor logs method, status code and duration of every unary call.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)),
		}
		if code == codes.Internal {
			logger.Error("grpc call", attrs...)
		} else {
			logger.Info("grpc call", attrs...)
		}
		return resp, err
	}
}
