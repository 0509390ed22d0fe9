package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestClientSecretInterceptor(t *testing.T) {
	ic := ClientSecretInterceptor("s3cret")
	ok := func(context.Context, any) (any, error) { return "ok", nil }

	call := func(ctx context.Context, method string) (any, error) {
		return ic(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, ok)
	}

	resp, err := call(context.Background(), healthCheckMethod)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = call(context.Background(), "/some.Service/Method")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-client-secret", "nope"))
	_, err = call(bad, "/some.Service/Method")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	good := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-client-secret", "s3cret"))
	resp, err = call(good, "/some.Service/Method")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestClientSecretInterceptor_Disabled(t *testing.T) {
	ic := ClientSecretInterceptor("")
	_, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(context.Context, any) (any, error) { return nil, nil })
	assert.NoError(t, err)
}
