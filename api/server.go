package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/openalpha/creator-staking/api/handlers"
	"github.com/openalpha/creator-staking/api/middleware"
	"github.com/openalpha/creator-staking/api/websocket"
	"github.com/openalpha/creator-staking/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	config     *Config
	logger     log.Logger

	service   *Service
	hub       *websocket.Hub
	collector *metrics.Collector

	stakingHandler *handlers.StakingHandler
	rateLimiter    *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisableRateLimit bool // For testing purposes
	EnableFaucet     bool
	RateLimit        *middleware.RateLimitConfig
	WebSocket        *websocket.HubConfig
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		RateLimit:    middleware.DefaultRateLimitConfig(),
		WebSocket:    websocket.DefaultHubConfig(),
	}
}

// NewServer creates a server backed by a fresh in-memory ledger. Service
// options are applied after the hub and collector are attached.
func NewServer(config *Config, logger log.Logger, opts ...ServiceOption) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	logger = logger.With("module", "api")

	collector := metrics.GetCollector()
	hub := websocket.NewHub(config.WebSocket, logger, collector)

	opts = append([]ServiceOption{WithPublisher(hub), WithCollector(collector)}, opts...)
	service, err := NewService(logger, opts...)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:         config,
		logger:         logger,
		service:        service,
		hub:            hub,
		collector:      collector,
		stakingHandler: handlers.NewStakingHandler(service, config.EnableFaucet),
		rateLimiter:    middleware.NewRateLimiter(config.RateLimit, collector),
	}, nil
}

// Service returns the service behind the server
func (s *Server) Service() *Service {
	return s.service
}

// Handler builds the HTTP handler: CORS -> RateLimit -> router
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestMetrics)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.ServeWS)

	s.stakingHandler.RegisterRoutes(r)

	var handler http.Handler = r
	if !s.config.DisableRateLimit {
		handler = middleware.RateLimitMiddleware(s.rateLimiter)(handler)
	}
	return corsMiddleware(handler)
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go s.hub.Run()

	s.logger.Info("API server starting",
		"addr", addr,
		"rate_limit", !s.config.DisableRateLimit,
		"faucet", s.config.EnableFaucet,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"height":     s.service.Height(),
		"ws_clients": s.hub.GetClientCount(),
		"timestamp":  time.Now().UnixMilli(),
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestMetrics tags each request with an id and records latency per route
// template so labels stay bounded
func (s *Server) requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		s.collector.RecordAPIRequest(r.Method, path, strconv.Itoa(rec.status), timer.ElapsedMs())
		s.logger.Debug("request", "request_id", requestID, "method", r.Method, "route", path,
			"status", rec.status, "ms", timer.ElapsedMs())
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
