// Package server exposes the router over HTTP for the CAD add-in.
//
// Information Hiding:
// - Route registration and middleware chain hidden
// - History persistence on command outcomes hidden
// - Shutdown sequencing hidden
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richinex/fusionmcp/config"
	"github.com/richinex/fusionmcp/internal/metrics"
	"github.com/richinex/fusionmcp/router"
	"github.com/richinex/fusionmcp/storage"
)

const requestIDHeader = "X-Request-ID"

// shutdownTimeout bounds the drain of in-flight requests.
const shutdownTimeout = 30 * time.Second

// Server wires the router and history store into an HTTP API.
type Server struct {
	engine *gin.Engine
	router *router.Router
	store  storage.Store
	cfg    *config.Config
}

// New builds the HTTP server around a router and history store.
func New(cfg *config.Config, rt *router.Router, store storage.Store) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: gin.New(),
		router: rt,
		store:  store,
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setupMiddleware() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(requestID())
	s.engine.Use(observe())
	s.engine.Use(cors.New(s.corsConfig()))
}

// corsConfig restricts origins to the local host pair unless remote access
// is explicitly allowed.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if s.cfg.AllowRemote {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{"http://localhost", "http://127.0.0.1"}
	}
	return cfg
}

func (s *Server) setupRoutes() {
	mcp := s.engine.Group("/mcp")
	{
		mcp.POST("/command", s.handleCommand)
		mcp.POST("/execute_action", s.handleExecuteAction)
	}

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/models", s.handleModels)
	s.engine.GET("/history", s.handleHistory)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// requestID ensures every request carries an id, generating one when the
// caller didn't send any.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// observe logs each request and feeds the duration histogram.
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(path, c.Request.Method, status).Observe(elapsed.Seconds())
		slog.Info("request handled",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}
