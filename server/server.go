// Package server exposes extraction over HTTP.
//
// Routes:
//
//	POST /extract    multipart upload in the "file" field; ?output=json|text|yaml
//	GET  /healthz    liveness probe
//	GET  /schema     JSON schema of the extraction result
//
// Call-level failures map to HTTP statuses: unsupported formats to 415,
// malformed input to 422 and unavailable recognition engines to 503. The
// body always carries the result, including its error field.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsawler/gleaner/model"
)

// Extractor is the part of gleaner.Extractor the server needs.
type Extractor interface {
	ExtractUpload(ctx context.Context, name, mimeType string, r io.Reader) (*model.Result, error)
}

// Options configures a Server.
type Options struct {
	// MaxUploadBytes bounds the request body. Zero means 100 MiB.
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Logger         *slog.Logger
}

// multipartSlack covers multipart boundaries and headers on top of the file.
const multipartSlack = 1 << 20

// memoryLimit is the part of a multipart body kept in memory; the rest is
// spooled to temporary files by net/http.
const memoryLimit = 32 << 20

// Server serves the HTTP API.
type Server struct {
	ex     Extractor
	opts   Options
	logger *slog.Logger
	router *chi.Mux
}

// New creates a Server.
func New(ex Extractor, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 100 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{ex: ex, opts: opts, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Post("/extract", s.handleExtract)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, letting in-flight extractions finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"req_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds())
	})
}
