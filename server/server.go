package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/server/middleware"
)

// Server is a Gin engine behind h2c, so HTTP/2 clients can hold many event
// streams over one cleartext connection.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	middleware []middleware.Middleware
	mounts     map[string]http.Handler
	config     Config
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		engine: gin.New(),
		mounts: make(map[string]http.Handler),
		config: cfg,
		log:    log.WithComponent("server"),
	}
	// Event streams never finish on their own, so their request contexts
	// end as soon as shutdown begins.
	base, cancel := context.WithCancel(context.Background())
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return base },
	}
	s.httpServer.RegisterOnShutdown(cancel)
	return s
}

// Engine returns the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Use adds server-level middleware. It must be called before Handler or Start.
func (s *Server) Use(mw ...middleware.Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// ApplyMiddleware installs recovery, request IDs, CORS, the body limit and
// request logging, outermost first.
func (s *Server) ApplyMiddleware() {
	s.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodyBytes),
		middleware.RequestLogger(s.log),
	)
}

// Mount serves path with h outside Gin, still behind the server middleware.
// Handlers that hijack the connection, such as WebSocket upgrades, need
// this: Gin refuses to hijack once its writer has flushed a status.
// It must be called before Handler or Start.
func (s *Server) Mount(path string, h http.Handler) {
	s.mounts[path] = h
}

// Handler returns the full handler chain wrapped for h2c.
func (s *Server) Handler() http.Handler {
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	var inner http.Handler = s.engine
	if len(s.mounts) > 0 {
		mounts := s.mounts
		inner = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h, ok := mounts[r.URL.Path]; ok {
				h.ServeHTTP(w, r)
				return
			}
			s.engine.ServeHTTP(w, r)
		})
	}
	return h2c.NewHandler(middleware.Chain(s.middleware...)(inner), h2s)
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.httpServer.Handler = s.Handler()

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()
	s.log.Info("HTTP server started", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop shuts down gracefully within ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

func (s *Server) listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}
