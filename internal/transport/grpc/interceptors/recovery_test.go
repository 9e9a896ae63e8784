package interceptors

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecoveryUnaryInterceptorConvertsPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	interceptor := RecoveryUnaryInterceptor(zap.New(core))

	info := &grpc.UnaryServerInfo{FullMethod: healthCheckMethod}
	_, err := interceptor(context.Background(), struct{}{}, info, func(context.Context, any) (any, error) {
		panic("boom")
	})

	if status.Code(err) != codes.Internal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected panic to be logged once, got %d", logs.Len())
	}
}

func TestRecoveryUnaryInterceptorPassesThrough(t *testing.T) {
	interceptor := RecoveryUnaryInterceptor(nil)

	resp, err := interceptor(context.Background(), struct{}{}, &grpc.UnaryServerInfo{}, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("expected passthrough, got %v, %v", resp, err)
	}
}
