// Package server exposes the export pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrsinham/dicombids/internal/export"
	"github.com/mrsinham/dicombids/internal/storage"
)

// SkippedHeader carries the number of skipped files of an experiment export.
const SkippedHeader = "X-Export-Skipped"

// DefaultMaxUploadBytes caps single-file uploads when Options leaves it zero.
const DefaultMaxUploadBytes = 512 << 20

// Options configures a Server.
type Options struct {
	// DataRoot is the directory experiment manifests may reference. Empty
	// disables experiment exports.
	DataRoot string
	// ScratchDir receives uploaded files. Empty means the system temporary
	// directory.
	ScratchDir     string
	MaxUploadBytes int64
	CORSOrigins    []string
}

// Server routes export requests to an assembler.
type Server struct {
	opts      Options
	assembler *export.Assembler
	publisher storage.Publisher
	logger    *zap.Logger
	engine    *gin.Engine
}

// New creates a Server. A nil publisher rejects publish requests.
func New(opts Options, assembler *export.Assembler, publisher storage.Publisher, logger *zap.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{opts: opts, assembler: assembler, publisher: publisher, logger: logger}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestLogger(logger))
	if len(opts.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost},
			AllowHeaders:  []string{"Origin", "Accept", "Content-Type"},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition", SkippedHeader},
		}))
	}
	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	group := s.engine.Group("/api/v1/exports")
	group.POST("/file", s.exportFile)
	group.POST("/experiment", s.exportExperiment)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown error", zap.Error(err))
		_ = srv.Close()
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
