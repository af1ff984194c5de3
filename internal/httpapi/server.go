package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"

	"github.com/wallet-primitives/transfer-service/internal/logger"
)

// Server wraps the router, the wallet handler, and the underlying
// http.Server, mirroring the teacher's own Server type: explicit
// construction, no framework DI, an explicit Run/Shutdown lifecycle
// (spec.md §9's "framework dependency injection" re-architecture note).
type Server struct {
	router        *mux.Router
	log           logger.Logger
	httpServer    *http.Server
	walletHandler *WalletHandler
	registry      *prom.Registry
}

// New constructs a Server with its routes and middleware chain already
// registered.
func New(walletHandler *WalletHandler, log logger.Logger) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		log:           log,
		walletHandler: walletHandler,
		registry:      prom.NewRegistry(),
	}
	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s.router.Use(requestLogging(s.log))

	metricsMiddleware := middleware.New(middleware.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{Registry: s.registry}),
	})
	s.router.Use(func(next http.Handler) http.Handler {
		return std.Handler("", metricsMiddleware, next)
	})

	s.router.Use(recovery(s.log))

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.walletHandler.RegisterRoutes(s.router)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
}

// Handler exposes the wired router, mainly for tests that want to issue
// requests through httptest without starting a real listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP listener and blocks until it stops or fails. It
// returns nil on a clean Shutdown.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      12 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = srv

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
