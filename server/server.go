// Package server exposes the job runner over HTTP.
//
// Routes:
//
//	GET  /                      health check
//	GET  /status                queue statistics
//	POST /ocr/                  submit a path (JSON) or an upload (multipart)
//	GET  /ocr/{job_id}/         job state, with the result once completed
//	POST /ocr/abort/{task_id}/  abort a queued or running job
//
// Trailing slashes are optional.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tsawler/ocrlayout/jobs"
)

// Options configures a Server.
type Options struct {
	// MaxUploadBytes bounds multipart request bodies; zero means 512 MiB
	MaxUploadBytes int64

	// SpoolDir receives uploads before a worker picks them up
	// (default: os.TempDir())
	SpoolDir string

	// RateLimit is the sustained request rate per second; zero disables
	// rate limiting
	RateLimit float64
	RateBurst int

	// CORSOrigins lists allowed origins (default: all)
	CORSOrigins []string

	// Auth authenticates /ocr requests; nil disables authentication
	Auth Authenticator

	// PathRoots restricts JSON path submissions to these directories and
	// refuses URLs; empty accepts any path or URL
	PathRoots []string
}

// Server is the HTTP API.
type Server struct {
	runner  *jobs.Runner
	log     zerolog.Logger
	opts    Options
	limiter *rate.Limiter
	paths   pathGuard
	handler http.Handler
}

// New creates a server for runner.
func New(runner *jobs.Runner, log zerolog.Logger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 512 << 20
	}
	if opts.SpoolDir == "" {
		opts.SpoolDir = os.TempDir()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		runner: runner,
		log:    log.With().Str("component", "server").Logger(),
		opts:   opts,
		paths:  newPathGuard(opts.PathRoots),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.handler = otelhttp.NewHandler(s.routes(), "ocrlayout")
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Request-Id"},
		MaxAge:         300,
	}))
	r.Use(s.rateLimit)

	r.Get("/", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/status", s.handleStatus)
		r.Post("/ocr", s.handleSubmit)
		r.Get("/ocr/{job_id}", s.handleGetJob)
		r.Post("/ocr/abort/{task_id}", s.handleAbort)
	})

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
