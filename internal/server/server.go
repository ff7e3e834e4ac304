// Package server exposes a single diagnostic session over HTTP.
//
// The server owns exactly one session. Clients upload a dataset, pick a
// target, run diagnostics, fetch the report and ask for modeling permission;
// DELETE /session resets the lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapgate/internal/ledger"
	"github.com/leapstack-labs/leapgate/internal/loader"
	"github.com/leapstack-labs/leapgate/internal/session"
)

// DefaultMaxUploadMB caps request bodies of dataset uploads.
const DefaultMaxUploadMB = 512

// Config holds configuration for the API server.
type Config struct {
	Addr    string
	Session *session.Session
	Loader  *loader.Loader
	// Ledger serves GET /history (optional).
	Ledger *ledger.Store
	// UploadDir holds uploaded files while they are read. Empty means the OS temp dir.
	UploadDir   string
	MaxUploadMB int
	Logger      *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr      string
	session   *session.Session
	loader    *loader.Loader
	ledger    *ledger.Store
	uploadDir string
	maxUpload int64
	logger    *slog.Logger
	handler   http.Handler
	// bound is the listener address while Serve runs. addrReady is closed once it is set.
	addrMu    sync.Mutex
	bound     net.Addr
	addrReady chan struct{}
}

// New creates a server. Session and Loader are required.
func New(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, errors.New("server requires a session")
	}
	if cfg.Loader == nil {
		return nil, errors.New("server requires a loader")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = DefaultMaxUploadMB
	}

	s := &Server{
		addr:      cfg.Addr,
		session:   cfg.Session,
		loader:    cfg.Loader,
		ledger:    cfg.Ledger,
		uploadDir: cfg.UploadDir,
		maxUpload: int64(maxMB) << 20,
		logger:    logger,
		addrReady: make(chan struct{}),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	h := &handlers{
		session:   s.session,
		loader:    s.loader,
		ledger:    s.ledger,
		uploadDir: s.uploadDir,
		maxUpload: s.maxUpload,
		logger:    s.logger,
	}

	r.Get("/health", h.health)
	r.Get("/formats", h.formats)
	r.Get("/history", h.history)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.snapshot)
		r.Post("/", h.load)
		r.Delete("/", h.reset)
		r.Get("/columns", h.columns)
		r.Put("/target", h.selectTarget)
		r.Post("/diagnostics", h.runDiagnostics)
		r.Get("/report", h.report)
		r.Post("/authorize", h.authorize)
	})

	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.publishAddr(ln.Addr())
	defer s.publishAddr(nil)
	s.logger.Info("starting API server", slog.String("addr", ln.Addr().String()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server")
		s.session.Reset()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// publishAddr sets the address reported by ListenAddr. A nil addr clears
// it, so a later Serve on the same Server starts clean.
func (s *Server) publishAddr(addr net.Addr) {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	if addr == nil {
		if s.bound != nil {
			s.addrReady = make(chan struct{})
		}
		s.bound = nil
		return
	}
	if s.bound == nil {
		close(s.addrReady)
	}
	s.bound = addr
}

// ListenAddr returns the bound address once Serve is listening.
func (s *Server) ListenAddr(ctx context.Context) (net.Addr, error) {
	for {
		s.addrMu.Lock()
		addr, ready := s.bound, s.addrReady
		s.addrMu.Unlock()
		if addr != nil {
			return addr, nil
		}
		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
