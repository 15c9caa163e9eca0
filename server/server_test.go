package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	apperrors "github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/server/endpoint"
	"github.com/kbukum/statekit/server/middleware"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.Nop())
	s.ApplyMiddleware()
	return s
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodyBytes != middleware.DefaultMaxBodyBytes || cfg.ActionRateLimit.Rate != 50 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected port error")
	}
}

func TestHandlerChainAndResponses(t *testing.T) {
	s := newTestServer(t)
	s.Engine().GET("/ok", func(c *gin.Context) { RespondOK(c, gin.H{"n": 1}) })
	s.Engine().GET("/missing", func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("pokemon", "nope"))
	})
	s.Engine().GET("/plain", func(c *gin.Context) { RespondWithError(c, fmt.Errorf("boom")) })

	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
	if rr.Code != http.StatusOK || rr.Body.String() != `{"data":{"n":1}}` {
		t.Errorf("ok: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("request id middleware not applied")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))
	var body apperrors.ErrorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if rr.Code != http.StatusNotFound || body.Error.Code != apperrors.ErrCodeNotFound {
		t.Errorf("missing: %d %+v", rr.Code, body)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("plain: %d", rr.Code)
	}
}

func TestMountBypassesGin(t *testing.T) {
	s := newTestServer(t)
	s.Engine().GET("/ok", func(c *gin.Context) { RespondOK(c, "gin") })
	s.Mount("/raw", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(gin.ResponseWriter); ok {
			t.Error("mounted handler got Gin's writer")
		}
		WriteError(w, apperrors.NotFound("store", r.URL.Query().Get("store")))
	}))
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/raw?store=nope", http.NoBody))
	var body apperrors.ErrorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if rr.Code != http.StatusNotFound || body.Error.Code != apperrors.ErrCodeNotFound {
		t.Errorf("raw: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("server middleware must still run for mounted handlers")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
	if rr.Code != http.StatusOK || rr.Body.String() != `{"data":"gin"}` {
		t.Errorf("ok: %d %s", rr.Code, rr.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	status := observability.HealthStatusUp
	r := gin.New()
	r.GET("/health", endpoint.Health(func(context.Context) *observability.ServiceHealth {
		sh := observability.NewServiceHealth("statekitd", "dev")
		sh.AddComponent(observability.Health{Name: "redis", Status: status})
		return sh
	}))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("up: %d", rr.Code)
	}

	status = observability.HealthStatusDown
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("down: %d", rr.Code)
	}
}

type api struct{}

func (api) state(c *gin.Context) { c.Status(http.StatusOK) }

func TestRoutesSorted(t *testing.T) {
	s := newTestServer(t)
	s.Engine().GET("/health", endpoint.Liveness("x", ""))
	s.Engine().POST("/actions", api{}.state)
	s.Engine().GET("/state", api{}.state)
	s.Engine().GET("/actions", api{}.state)

	var got []string
	for _, r := range s.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}
	want := []string{"GET /actions", "POST /actions", "GET /state", "GET /health"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("routes (-want +got):\n%s", diff)
	}
}

func TestHandlerName(t *testing.T) {
	tests := map[string]string{
		"github.com/kbukum/statekit/internal/daemon.(*API).state-fm": "API.state",
		"github.com/kbukum/statekit/server/endpoint.Liveness.func1":  "Liveness",
		"github.com/kbukum/statekit/server.api.state-fm":             "api.state",
		"main.handler":                                               "handler",
	}
	for in, want := range tests {
		if got := handlerName(in); got != want {
			t.Errorf("handlerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t)
	s.Engine().GET("/alive", endpoint.Liveness("statekitd", "1.0.0"))
	c := NewComponent(s)
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != observability.HealthStatusDown {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/alive")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if h := c.Health(ctx); h.Status != observability.HealthStatusUp || h.Details["addr"] != s.Addr() {
		t.Errorf("health = %+v", h)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}
