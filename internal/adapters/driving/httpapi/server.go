// Package httpapi exposes the agent over a local HTTP API.
//
// The host (a browser extension, a native helper, a script) drives the agent
// through it: command endpoints mirror the agent surface and event endpoints
// feed the push credential and liveness sources.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sessync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
	"github.com/custodia-labs/sessync/internal/logger"
)

// Server timeouts.
const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 5 * time.Second
)

// ErrMissingAgent is returned when the agent service is not provided.
var ErrMissingAgent = errors.New("httpapi: agent service is required")

// Ports aggregates what the API drives.
type Ports struct {
	Agent  driving.AgentService
	Events driving.EventSink

	// Jar receives pushed credentials. Nil when credentials come from a file.
	Jar *memory.CredentialJar

	// Surfaces receives pushed surfaces. Nil when liveness uses devtools.
	Surfaces *memory.SurfaceRegistry

	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer

	Version string
}

// Server is the local HTTP API server.
type Server struct {
	router *gin.Engine
	server *http.Server
}

// NewServer builds the router and server for addr.
func NewServer(addr string, ports Ports) (*Server, error) {
	router, err := NewRouter(ports)
	if err != nil {
		return nil, err
	}
	return &Server{
		router: router,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}, nil
}

// NewRouter configures middleware and routes.
func NewRouter(ports Ports) (*gin.Engine, error) {
	if ports.Agent == nil {
		return nil, ErrMissingAgent
	}
	if ports.Gatherer == nil {
		ports.Gatherer = prometheus.DefaultGatherer
	}

	if logger.IsVerbose() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	h := &handlers{ports: ports}

	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(ports.Gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		commands := v1.Group("/commands")
		commands.POST("/sync", h.syncNow)
		commands.POST("/test-connection", h.testConnection)
		commands.POST("/clear", h.clearAll)

		v1.GET("/credentials", h.credentials)
		v1.DELETE("/credentials/:name", h.removeCredential)
		v1.GET("/status", h.status)
		v1.GET("/history", h.history)

		if ports.Events != nil {
			events := v1.Group("/events")
			events.POST("/credentials", h.credentialChanged)
			events.POST("/navigation", h.navigationCompleted)
			events.POST("/surface-closed", h.surfaceClosed)
			events.POST("/focus", h.focusChanged)
			events.PUT("/surfaces", h.replaceSurfaces)
		}
	}

	return router, nil
}

// Handler returns the HTTP handler (tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api: listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// requestLogger logs one line per request at debug level, or warn on 5xx.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			logger.Warn("http api: %s %s -> %d (%s) %s",
				c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.Errors.String())
			return
		}
		logger.Debug("http api: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}
}
