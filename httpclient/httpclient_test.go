package httpclient

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/statekit/resilience"
	"github.com/kbukum/statekit/security"
)

type pokemon struct {
	Name   string `json:"name"`
	Height int    `json:"height"`
}

func TestGetDecodesAndAppliesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/pikachu" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("apikey"); got != "k1" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.URL.Query().Get("plot"); got != "full" {
			t.Errorf("plot = %q", got)
		}
		if got := r.Header.Get("X-Client"); got != "statekit" {
			t.Errorf("X-Client = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"pikachu","height":4}`))
	}))
	defer srv.Close()

	a, err := New(Config{
		Name:    "pokeapi",
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Client": "statekit"},
		Query:   map[string]string{"apikey": "k1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := Get[pokemon](a, context.Background(), "pokemon/pikachu", WithQueryParam("plot", "full"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.Data != (pokemon{Name: "pikachu", Height: 4}) {
		t.Errorf("data = %+v", res.Data)
	}
}

func TestPostSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pokemon" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var in pokemon
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		in.Height *= 10
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	a, err := New(Config{Name: "pokeapi", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	res, err := Post[pokemon](a, context.Background(), "pokemon", pokemon{Name: "ditto", Height: 3})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res.StatusCode != http.StatusCreated || res.Data != (pokemon{Name: "ditto", Height: 30}) {
		t.Errorf("response = %d %+v", res.StatusCode, res.Data)
	}
}

func TestClassifiedErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, "Not Found", IsNotFound},
		{"server", http.StatusBadGateway, "", IsServerError},
		{"decode", http.StatusOK, "<html>", func(err error) bool { return hasCode(err, ErrCodeDecode) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			a, _ := New(Config{BaseURL: srv.URL})
			_, err := Get[pokemon](a, context.Background(), "/x")
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"name":"ditto"}`))
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	a, _ := New(Config{BaseURL: srv.URL, Retry: retry})

	res, err := Get[pokemon](a, context.Background(), "/")
	if err != nil {
		t.Fatal(err)
	}
	if res.Data.Name != "ditto" || calls.Load() != 3 {
		t.Errorf("name=%q calls=%d", res.Data.Name, calls.Load())
	}
}

func TestNoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	a, _ := New(Config{BaseURL: srv.URL, Retry: retry})

	if _, err := a.Do(context.Background(), Request{Path: "/"}); !IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	status := atomic.Int32{}
	status.Store(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	cb := DefaultCircuitBreakerConfig("pokeapi")
	cb.MaxFailures = 2
	a, _ := New(Config{BaseURL: srv.URL, CircuitBreaker: cb})
	ctx := context.Background()

	for range 5 {
		_, _ = a.Do(ctx, Request{Path: "/"})
	}
	if !a.IsAvailable(ctx) {
		t.Fatal("404s must not open the circuit")
	}

	status.Store(http.StatusInternalServerError)
	for range 2 {
		_, _ = a.Do(ctx, Request{Path: "/"})
	}
	if a.IsAvailable(ctx) {
		t.Fatal("5xx should open the circuit")
	}
	if _, err := a.Do(ctx, Request{Path: "/"}); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("err = %v", err)
	}
}

func TestCancelledRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	a, _ := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := a.Do(ctx, Request{Path: "/"})
	if !IsCancelled(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{BaseURL: "not a url"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid base_url error")
	}
	cfg = Config{RateLimiter: &resilience.RateLimiterConfig{}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected rate error")
	}
	if cfg.Name != "http" || cfg.RateLimiter.Name != "http" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestTLSWithCustomCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"mew","height":4}`))
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, block, 0o600); err != nil {
		t.Fatal(err)
	}

	plain, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Get[pokemon](plain, context.Background(), "/"); err == nil {
		t.Fatal("unknown CA must fail verification")
	}

	trusted, err := New(Config{BaseURL: srv.URL, TLS: &security.TLSConfig{CAFile: caFile}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := Get[pokemon](trusted, context.Background(), "/")
	if err != nil || res.Data.Name != "mew" {
		t.Fatalf("Get = %+v, %v", res, err)
	}

	if _, err := New(Config{TLS: &security.TLSConfig{CAFile: filepath.Join(t.TempDir(), "missing.pem")}}); err == nil {
		t.Error("missing CA file should fail New")
	}
}
