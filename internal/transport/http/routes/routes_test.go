package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/security"
	redisrepo "github.com/yusay1498/vibe-coding-practice-api/internal/repository/redis"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/middleware"
	httproutes "github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/routes"
)

type usersStub struct {
	createdHash string
	purged      int
}

func (s *usersStub) Create(_ context.Context, username, email, hash string) (*domain.User, error) {
	s.createdHash = hash
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.User{ID: "7d0f3c5e-2a4b-4c1d-9e8f-0a1b2c3d4e5f", Username: username, Email: email, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *usersStub) Update(context.Context, string, domain.UserPatch) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (s *usersStub) Delete(context.Context, string) error { return domain.ErrNotFound }

func (s *usersStub) DeleteAll(context.Context) (domain.DeleteAllResult, error) {
	s.purged++
	return domain.DeleteAllResult{DeletedCount: 3}, nil
}

func (s *usersStub) Lookup(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (s *usersStub) List(context.Context) ([]domain.User, error) { return nil, nil }

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{Env: "test"},
		RateLimit: config.RateLimitSettings{
			WindowDuration:       time.Minute,
			WriteMaxAttempts:     10,
			DeleteAllMaxAttempts: 1,
		},
		Password: config.PasswordSettings{MinLength: 8, MaxLength: 100},
	}
}

func newRouter(t *testing.T, users *usersStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redisrepo.NewRateLimitRepository(client, redisrepo.SlidingWindowConfig{KeyPrefix: "test:rl", TTL: 2 * time.Minute})
	hasher, err := security.NewArgon2Hasher(security.Argon2Config{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	cfg := testConfig()
	return httproutes.Register(httproutes.Dependencies{
		Config:         cfg,
		Logger:         zap.NewNop(),
		RateLimiter:    middleware.NewRateLimiter(store, zap.NewNop()),
		Users:          users,
		PasswordPolicy: security.NewPasswordPolicy(cfg.Password),
		PasswordHasher: hasher,
		HTTPMetrics:    metrics,
		Gatherer:       registry,
	})
}

func serve(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: zap.NewNop(),
	})

	w := serve(r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	// without a user service the API group is not mounted
	if w := serve(r, http.MethodGet, "/api/v1/users", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unmounted API, got %d", w.Code)
	}
}

func TestCreateUserHashesWithArgon2(t *testing.T) {
	users := &usersStub{}
	r := newRouter(t, users)

	w := serve(r, http.MethodPost, "/api/v1/users",
		`{"username":"alice","email":"alice@example.com","password":"correct horse battery"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(users.createdHash, "argon2id$") {
		t.Fatalf("expected argon2id hash to reach the service, got %q", users.createdHash)
	}
	if strings.Contains(w.Body.String(), users.createdHash) {
		t.Fatalf("response must not expose the password hash")
	}
	if loc := w.Header().Get("Location"); loc != "/api/v1/users/7d0f3c5e-2a4b-4c1d-9e8f-0a1b2c3d4e5f" {
		t.Fatalf("unexpected Location %q", loc)
	}
}

func TestDeleteAllIsRateLimited(t *testing.T) {
	users := &usersStub{}
	r := newRouter(t, users)
	confirm := map[string]string{middleware.ConfirmDeleteAllHeader: "true"}

	first := serve(r, http.MethodDelete, "/api/v1/users", "", confirm)
	if first.Code != http.StatusOK {
		t.Fatalf("expected first purge to succeed, got %d: %s", first.Code, first.Body.String())
	}

	second := serve(r, http.MethodDelete, "/api/v1/users", "", confirm)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second purge, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if users.purged != 1 {
		t.Fatalf("expected service to be called once, got %d", users.purged)
	}

	var problem middleware.ProblemDetails
	if err := json.Unmarshal(second.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Type != middleware.ProblemTypeRateLimited {
		t.Fatalf("unexpected problem type %q", problem.Type)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	r := newRouter(t, &usersStub{})

	serve(r, http.MethodGet, "/api/v1/users", "", nil)

	w := serve(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `users_http_requests_total{method="GET",route="/api/v1/users",status="200"}`) {
		t.Fatalf("expected request counter in exposition, got:\n%s", w.Body.String())
	}
}
