package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-input/internal/bridges/input"
	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/logging"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// BindingSource reports the live device bindings and behaviours.
// *input.Managers satisfies it.
type BindingSource interface {
	Snapshot() input.Bindings
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Store    *graph.Store
	Bindings BindingSource
	Version  string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, the WebSocket hub and
// the optional mDNS advertisement.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	store    *graph.Store
	bindings BindingSource
	version  string

	hub        *Hub
	advertiser *Advertiser

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a new API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if deps.Bindings == nil {
		return nil, fmt.Errorf("binding source is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		store:    deps.Store,
		bindings: deps.Bindings,
		version:  deps.Version,
		hub:      NewHub(deps.WS, deps.Logger),
	}, nil
}

// Handler returns the router. Start serves the same handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listening socket and serves in the background.
// When mDNS is enabled the bound port is advertised.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}(s.server)

	s.logger.Info("API server listening", "address", ln.Addr().String())

	if s.cfg.MDNS.Enabled {
		s.advertiser = NewAdvertiser(AdvertiserConfig{
			Instance:  s.cfg.MDNS.Instance,
			Interface: s.cfg.MDNS.Interface,
			Version:   s.version,
		})
		if err := s.advertiser.Advertise(s.Port()); err != nil {
			// The API stays up without advertisement.
			s.logger.Warn("mDNS advertisement failed", "error", err)
		}
	}

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound TCP port, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Close withdraws the mDNS record, closes WebSocket streams and shuts the
// HTTP server down, waiting up to 10 seconds for in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	if s.advertiser != nil {
		s.advertiser.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)
	s.server = nil
	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
