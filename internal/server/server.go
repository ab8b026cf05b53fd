// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/config"
	"github.com/vyrodovalexey/item-catalog/internal/events"
	"github.com/vyrodovalexey/item-catalog/internal/handler"
	"github.com/vyrodovalexey/item-catalog/internal/middleware"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	probeServer *http.Server // nil when ProbePort is 0
	router      *mux.Router
	probeRouter *mux.Router
	config      *config.Config
	logger      *zap.Logger
	store       store.Store
	broker      *events.Broker
	wsHandler   *handler.WebSocketHandler
	registry    *prometheus.Registry
}

// New creates a new Server instance serving itemStore.
func New(cfg *config.Config, logger *zap.Logger, itemStore store.Store) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		probeRouter: mux.NewRouter(),
		config:      cfg,
		logger:      logger,
		store:       itemStore,
		registry:    prometheus.NewRegistry(),
	}

	if cfg.MetricsEnabled {
		s.store = store.NewInstrumentedStore(itemStore, s.registry)
	}
	if cfg.EventsEnabled {
		s.broker = events.NewBroker(cfg.EventBufferSize, logger.Named("events"))
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupHTTPServer()
	s.setupProbeServer()

	return s
}

// allowedOrigins is shared by CORS and the WebSocket upgrader.
func (s *Server) allowedOrigins() []string {
	if len(s.config.CORSAllowedOrigins) == 0 {
		return []string{config.DefaultCORSAllowedOrigin}
	}
	return s.config.CORSAllowedOrigins
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		"Authorization",
		middleware.RequestIDHeader,
	}

	// First applied is outermost; RequestID wraps Recovery so panics are logged with the id.
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))

	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.CORS(s.allowedOrigins(), allowedMethods, allowedHeaders)))

	s.probeRouter.Use(mux.MiddlewareFunc(middleware.RequestID()))
	s.probeRouter.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.probeRouter.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
}

// setupRoutes configures the API and probe routes.
func (s *Server) setupRoutes() {
	var publisher handler.Publisher
	if s.broker != nil {
		publisher = s.broker
	}

	restHandler := handler.NewRESTHandler(s.store, publisher, handler.Options{
		APIPrefix:        s.config.APIPrefix,
		DefaultPageLimit: s.config.DefaultPageLimit,
		AppName:          s.config.AppName,
		Version:          s.config.AppVersion,
	}, s.logger.Named("rest"))
	restHandler.RegisterRoutes(s.router)
	restHandler.RegisterProbeRoutes(s.probeRouter)

	if s.broker != nil {
		s.wsHandler = handler.NewWebSocketHandler(s.broker, s.allowedOrigins(), s.logger.Named("websocket"))
		s.wsHandler.RegisterRoutes(s.router)
	}

	// Middleware only runs on matched routes, so preflight needs a route of its own.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if s.config.MetricsEnabled {
		metrics := promhttp.HandlerFor(
			prometheus.Gatherers{prometheus.DefaultGatherer, s.registry},
			promhttp.HandlerOpts{},
		)
		s.router.Handle("/metrics", metrics).Methods(http.MethodGet)
		s.probeRouter.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// setupProbeServer configures the probe server when a probe port is set.
func (s *Server) setupProbeServer() {
	if s.config.ProbePort == 0 {
		return
	}

	s.probeServer = &http.Server{
		Addr:              s.config.ProbeAddress(),
		Handler:           s.probeRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Start starts the HTTP server and, if configured, the probe server.
// It blocks until the main server stops.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.String("api_prefix", s.config.APIPrefix),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Bool("events_enabled", s.config.EventsEnabled),
	)

	if s.probeServer != nil {
		go func() {
			s.logger.Info("starting probe server", zap.String("address", s.config.ProbeAddress()))
			if err := s.probeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("probe server failed", zap.Error(err))
			}
		}()
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// WebSocket connections are hijacked, so http.Server.Shutdown does not wait for them.
	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}
	if s.broker != nil {
		s.broker.Close()
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if s.probeServer != nil {
		if err := s.probeServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("probe server shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ProbeRouter returns the probe server's router for testing purposes.
func (s *Server) ProbeRouter() *mux.Router {
	return s.probeRouter
}
