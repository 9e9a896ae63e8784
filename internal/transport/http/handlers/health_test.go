package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestReadinessReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHealthHandler(
		WithReadinessCheck("database", func(context.Context) error { return nil }),
		WithReadinessCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") }),
		WithReadinessCheck("skipped", nil),
	)

	r := gin.New()
	r.GET("/healthz", h.Status)
	r.GET("/readyz", h.Readiness)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected liveness 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var resp ReadyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode readiness: %v", err)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["redis"] != "unavailable" {
		t.Fatalf("unexpected checks: %v", resp.Checks)
	}
	if _, ok := resp.Checks["skipped"]; ok {
		t.Fatalf("nil check should not be registered")
	}
}
