package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

func newGRPCServer(healthServer *health.Server) *grpc.Server {
	server := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor))
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	return server
}

// loggingInterceptor logs every unary call with its status code.
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	t := time.Now()
	resp, err := handler(ctx, req)
	slog.DebugContext(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency", time.Since(t),
	)
	return resp, err
}

// withGRPCWeb routes grpc-web requests to the gRPC server and everything
// else to next.
func withGRPCWeb(server *grpc.Server, next http.Handler) http.Handler {
	wrapped := grpcweb.WrapServer(server,
		grpcweb.WithOriginFunc(func(string) bool { return true }),
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wrapped.IsGrpcWebRequest(r) || wrapped.IsAcceptableGrpcCorsRequest(r) {
			wrapped.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
