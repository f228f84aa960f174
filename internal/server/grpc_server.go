package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/metrics"
)

// NewGRPCServer builds a gRPC server with logging/metrics and registers all
// provided services.
func NewGRPCServer(log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogging(log)))

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer listens on the configured address and serves until ctx is
// done, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}

// UnaryLogging logs every call and records its duration by status code.
// Failures with code Internal are logged at error level, everything else at
// debug.
func UnaryLogging(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err)
		metrics.RPCDuration.WithLabelValues(info.FullMethod, code.String()).Observe(elapsed.Seconds())

		attrs := []any{"method", info.FullMethod, "code", code.String(), "duration", elapsed}
		switch {
		case err == nil:
			log.Debug("rpc ok", attrs...)
		case code == codes.Internal || code == codes.Unknown:
			log.Error("rpc failed", append(attrs, "err", err)...)
		default:
			log.Debug("rpc rejected", append(attrs, "err", err)...)
		}
		return resp, err
	}
}
