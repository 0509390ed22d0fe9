package server

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	healthCheckMethod = "/grpc.health.v1.Health/Check"
	healthListMethod  = "/grpc.health.v1.Health/List"
	healthWatchMethod = "/grpc.health.v1.Health/Watch"
)

// Methods reachable without the client secret.
var (
	publicUnaryMethods = map[string]bool{
		healthCheckMethod: true,
		healthListMethod:  true,
	}
	publicStreamMethods = map[string]bool{
		healthWatchMethod: true,
	}
)

func checkClientSecret(ctx context.Context, secret string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("x-client-secret")
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing x-client-secret")
	}
	if subtle.ConstantTimeCompare([]byte(vals[0]), []byte(secret)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid x-client-secret")
	}
	return nil
}

// ClientSecretInterceptor returns a gRPC unary server interceptor that
// requires the x-client-secret metadata header on every method except the
// health checks. An empty secret disables authentication.
func ClientSecretInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if secret == "" || publicUnaryMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		if err := checkClientSecret(ctx, secret); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// ClientSecretStreamInterceptor is the streaming counterpart of
// ClientSecretInterceptor. Reflection streams need the secret.
func ClientSecretStreamInterceptor(secret string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if secret == "" || publicStreamMethods[info.FullMethod] {
			return handler(srv, ss)
		}
		if err := checkClientSecret(ss.Context(), secret); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
