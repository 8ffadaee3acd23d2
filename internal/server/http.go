package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/logging"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

// Pinger is a dependency checked by /v1/ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Routes groups the resource routers mounted under /v1.
type Routes struct {
	Questions  func(chi.Router)
	Categories func(chi.Router)
	Tags       func(chi.Router)
}

// Options carries everything the HTTP server is built from.
type Options struct {
	Addr     string
	Auth     func(http.Handler) http.Handler
	Gatherer prometheus.Gatherer
	Deps     map[string]Pinger
	Routes   Routes
}

// NewHTTPServer wires base routes (health, metrics, ping) and the API.
func NewHTTPServer(opts Options, logger zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(opts, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the chi router behind the server.
func NewRouter(opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests(logger))
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "route not found")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			if err := pingDependencies(r.Context(), opts.Deps); err != nil {
				reqLogger := logging.FromContext(r.Context())
				reqLogger.Error().Err(err).Msg("dependency ping failed")
				name := "dependency"
				var depErr *DependencyError
				if errors.As(err, &depErr) {
					name = depErr.Name
				}
				httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, name+" is unavailable")
				return
			}
			httperrors.RespondJSON(w, http.StatusOK, map[string]bool{"pong": true})
		})
		mount(r, "/questions", opts.Routes.Questions)
		mount(r, "/categories", opts.Routes.Categories)
		mount(r, "/tags", opts.Routes.Tags)
	})
	return r
}

func mount(r chi.Router, pattern string, routes func(chi.Router)) {
	if routes != nil {
		r.Route(pattern, routes)
	}
}

func pingDependencies(ctx context.Context, deps map[string]Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			return &DependencyError{Name: name, Err: err}
		}
	}
	return nil
}

// DependencyError names the dependency that failed a ping.
type DependencyError struct {
	Name string
	Err  error
}

func (e *DependencyError) Error() string { return e.Name + ": " + e.Err.Error() }
func (e *DependencyError) Unwrap() error { return e.Err }
