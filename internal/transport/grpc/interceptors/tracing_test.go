package interceptors

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

func TestTracingServerOptionBuildsServer(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	opt := TracingServerOption(TracingOptions{
		TracerProvider: provider,
		Propagators:    propagation.TraceContext{},
	})
	if opt == nil {
		t.Fatalf("expected server option")
	}

	server := grpc.NewServer(opt)
	server.Stop()
}
