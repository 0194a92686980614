package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/Iron-Ham/maintenance/internal/logging"
)

const (
	defaultHeartbeat = 15 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// Server exposes a command.Service over HTTP.
type Server struct {
	svc       *command.Service
	router    *gin.Engine
	logger    *logging.Logger
	heartbeat time.Duration

	// closing is closed once shutdown begins so event streams end.
	closing   chan struct{}
	closeOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHeartbeat sets the interval between keep-alive pings on the event
// stream.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// NewServer creates a server and registers its routes. The gin mode is
// taken from the service configuration.
func NewServer(svc *command.Service, opts ...Option) *Server {
	if mode := svc.Config().API.Mode; mode != "" {
		gin.SetMode(mode)
	}

	s := &Server{
		svc:       svc,
		router:    gin.New(),
		logger:    logging.NopLogger(),
		heartbeat: defaultHeartbeat,
		closing:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("api")

	s.router.Use(gin.Recovery(), s.logRequests())

	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/tasks", s.handleList)
		api.POST("/tasks", s.handleAdd)
		api.POST("/tasks/quick", s.handleQuickAdd)
		api.GET("/tasks/:id", s.handleGet)
		api.PATCH("/tasks/:id", s.handleUpdate)
		api.DELETE("/tasks/:id", s.handleDelete)
		api.POST("/tasks/:id/start", s.handleStart)
		api.POST("/tasks/:id/pause", s.handlePause)
		api.POST("/tasks/:id/complete", s.handleComplete)
		api.POST("/tasks/:id/done", s.handleMarkDone)
		api.GET("/zones", s.handleZones)
		api.GET("/events", s.handleEvents)
	}

	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. Open event streams are ended when shutdown begins; a Server
// cannot serve again afterwards.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(s.endStreams)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return err
	}
	return nil
}

func (s *Server) endStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", args...)
			return
		}
		s.logger.Debug("request", args...)
	}
}
