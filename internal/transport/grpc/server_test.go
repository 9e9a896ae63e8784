package transportgrpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/grpc/interceptors"
)

func startBufServer(t *testing.T, deps ServerDependencies) (*Server, healthpb.HealthClient) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := NewServer(deps)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return server, healthpb.NewHealthClient(conn)
}

func TestServerHealthCheck(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := interceptors.NewGRPCMetrics(interceptors.GRPCMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	server, client := startBufServer(t, ServerDependencies{Metrics: metrics})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{}, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.GetStatus())
	}

	server.SetServing(false)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", resp.GetStatus())
	}

	count, err := testutil.GatherAndCount(registry, "users_grpc_requests_total")
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if count == 0 {
		t.Fatalf("expected gRPC request metrics to be recorded")
	}
}

func TestServerWithoutMetricsOrTracing(t *testing.T) {
	_, client := startBufServer(t, ServerDependencies{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Check(ctx, &healthpb.HealthCheckRequest{}, grpc.WaitForReady(true)); err != nil {
		t.Fatalf("health check: %v", err)
	}
}

func TestServerShutdownForcesStopWithOpenWatch(t *testing.T) {
	server, client := startBufServer(t, ServerDependencies{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx, &healthpb.HealthCheckRequest{}, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("first watch update: %v", err)
	}

	expired, cancelShutdown := context.WithCancel(context.Background())
	cancelShutdown()

	done := make(chan struct{})
	go func() {
		server.Shutdown(expired)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("shutdown did not return")
	}
}
