// Package server exposes script execution and schema browsing over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlbatch/internal/explorer"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Runner executes scripts. *executor.Pipeline satisfies it.
type Runner interface {
	Execute(ctx context.Context, script string, opts core.Options) ([]core.Envelope, error)
}

// Recorder persists executed envelopes. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, envelopes []core.Envelope) error
}

// Config holds configuration for the server.
type Config struct {
	Runner   Runner
	Explorer *explorer.Explorer
	Recorder Recorder

	// Defaults are the execution options used when a request omits them.
	Defaults core.Options

	// Listen is a host:port address.
	Listen string

	// Token enables bearer authentication when set.
	Token string

	Logger *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and creates a server.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("server requires a runner")
	}
	if err := validateListenAddr(cfg.Listen); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, logger: logger}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Group(func(r chi.Router) {
			if s.cfg.Token != "" {
				r.Use(bearerAuth(s.cfg.Token))
			}
			r.Post("/execute", s.handleExecute)
			r.Get("/dialects", s.handleDialects)
			r.Route("/explorer", func(r chi.Router) {
				r.Get("/databases", s.handleDatabases)
				r.Get("/tables", s.handleTables)
				r.Get("/columns", s.handleColumns)
				r.Get("/search", s.handleSearch)
			})
		})
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
		})
	})

	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", "http://"+s.cfg.Listen)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func validateListenAddr(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return errors.New("server.listen is required")
	}

	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.New("server.listen must be in host:port format")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return errors.New("server.listen port is invalid")
	}

	return nil
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
				subtle.ConstantTimeCompare([]byte(parts[1]), want) != 1 {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
