package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/batterygen/internal/device"
	"github.com/nerrad567/batterygen/internal/generator"
	"github.com/nerrad567/batterygen/internal/infrastructure/config"
	"github.com/nerrad567/batterygen/internal/infrastructure/logging"
	"github.com/nerrad567/batterygen/internal/publisher"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// LoopStatus reports the progress of the generator loop.
type LoopStatus interface {
	Status() generator.Status
	Iteration() int
}

// DeliveryStats reports publisher counters.
type DeliveryStats interface {
	Stats() publisher.Stats
	Outstanding() int
	Topic() string
}

// HealthChecker is implemented by transports and sinks that can be probed.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the status server.
type Deps struct {
	Config    config.APIConfig
	Logger    *logging.Logger
	Registry  *device.Registry
	Loop      LoopStatus
	Publisher DeliveryStats
	Transport HealthChecker // optional
	Version   string
}

// Server is a read-only HTTP status server for a running generator.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	registry  *device.Registry
	loop      LoopStatus
	publisher DeliveryStats
	transport HealthChecker
	version   string
	startTime time.Time
	server    *http.Server
	listener  net.Listener
}

// New creates a status server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("%w: logger", ErrMissingDependency)
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("%w: device registry", ErrMissingDependency)
	}
	if deps.Loop == nil || deps.Publisher == nil {
		return nil, fmt.Errorf("%w: generator loop and publisher", ErrMissingDependency)
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		registry:  deps.Registry,
		loop:      deps.Loop,
		publisher: deps.Publisher,
		transport: deps.Transport,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// A bind failure (port in use) is returned immediately.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("binding API listener: %w", err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close waits up to 10 seconds for in-flight requests, then closes
// remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return ErrNotStarted
	}
	return nil
}
