package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/jobinpa/tinyhttp/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the standard HTTP port
	DefaultPort = 80

	// DefaultMaxRequestSize is the number of bytes read from each connection
	DefaultMaxRequestSize = 1024

	// DefaultBacklog is the listen backlog; one pending connection at a time
	DefaultBacklog = 1

	// Bounds for the pause after a failed accept while running
	minAcceptRetryDelay = 5 * time.Millisecond
	maxAcceptRetryDelay = 1 * time.Second
)

// Config holds the server configuration
type Config struct {
	Host           string // Empty = all interfaces
	Port           int    // 0 picks a free port
	MaxRequestSize int    // Bytes read per request (default 1024)
	Backlog        int    // Listen backlog (default 1)
}

// Addr returns the host:port the server binds to
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server is a single-threaded HTTP/1.x server. Connections are accepted,
// answered and closed one at a time, in acceptance order.
//
// Start and Stop may be called from different goroutines.
type Server struct {
	config *Config
	conns  ConnServer

	mu       sync.Mutex
	state    State
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a server that dispatches requests to handler.
func New(config *Config, handler Handler) (*Server, error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if config == nil {
		return nil, errors.New("config is required")
	}
	return NewWithConnServer(config, NewPipeline(handler, config.MaxRequestSize))
}

// NewWithConnServer creates a server that hands every accepted connection to
// conns. This is the seam for replacing the serial request pipeline.
func NewWithConnServer(config *Config, conns ConnServer) (*Server, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if conns == nil {
		return nil, errors.New("connection server is required")
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", config.Port)
	}

	cfg := *config
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultMaxRequestSize
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultBacklog
	}

	return &Server{
		config: &cfg,
		conns:  conns,
		state:  StateStopped,
	}, nil
}

// State returns the current lifecycle state
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the address of the listening socket, or nil when the server
// is not running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listening socket and runs the accept loop until Stop is
// called. It returns immediately with a nil error if the server is not
// stopped. A failure to bind or listen is returned and leaves the server
// stopped.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStarting
	s.mu.Unlock()

	addr := s.config.Addr()
	logging.Info("Starting TinyHttpServer",
		zap.String("addr", addr),
		zap.Int("max_request_size", s.config.MaxRequestSize),
		zap.Int("backlog", s.config.Backlog),
	)

	ln, err := listen(addr, s.config.Backlog)
	if err != nil {
		s.setState(StateStopped)
		logging.Error("Failed to acquire listening socket",
			zap.String("addr", addr),
			zap.Error(err),
		)
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.listener = ln
	s.cancel = cancel
	s.state = StateRunning
	s.mu.Unlock()

	logging.Info("TinyHttpServer listening",
		zap.String("addr", ln.Addr().String()),
	)

	// The socket must be closed on every exit path, including a panic
	// raised by a custom ConnServer.
	defer s.stop(ln)

	s.acceptLoop(ctx, ln)
	return nil
}

// Stop closes the listening socket, which makes the pending accept return
// and the accept loop exit. It is a no-op unless the server is running. A
// connection being served when Stop is called is not interrupted, but its
// response is dropped.
func (s *Server) Stop() {
	s.stop(nil)
}

// stop shuts down the server if it is running on owner, or on any listener
// when owner is nil. A loop that outlived its listener must not stop a
// server that has since been restarted.
func (s *Server) stop(owner net.Listener) {
	s.mu.Lock()
	if s.state != StateRunning || (owner != nil && s.listener != owner) {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	ln, cancel := s.listener, s.cancel
	s.listener, s.cancel = nil, nil
	s.mu.Unlock()

	logging.Info("Stopping TinyHttpServer...")

	cancel()
	if err := ln.Close(); err != nil {
		logging.Debug("Error closing listener", zap.Error(err))
	}

	s.setState(StateStopped)
	logging.Info("TinyHttpServer stopped")
}

func (s *Server) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// serving reports whether the accept loop bound to ln should keep going.
func (s *Server) serving(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning && s.listener == ln
}

// acceptLoop serves connections one at a time while the server runs on ln.
// Accept errors are faults only while running; after Stop they are the
// expected result of closing the socket.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	var retryDelay time.Duration

	for s.serving(ln) {
		conn, err := ln.Accept()
		if err != nil {
			if !s.serving(ln) {
				logging.Debug("Accept interrupted by shutdown", zap.Error(err))
				return
			}
			if errors.Is(err, net.ErrClosed) {
				logging.Error("Listening socket closed unexpectedly", zap.Error(err))
				return
			}

			retryDelay = nextRetryDelay(retryDelay)
			logging.Warn("Failed to accept connection",
				zap.Error(err),
				zap.Duration("retry_in", retryDelay),
			)
			time.Sleep(retryDelay)
			continue
		}

		retryDelay = 0
		s.serveConn(ctx, conn)
	}
}

// serveConn runs one request-response cycle. The client socket never
// outlives this call.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "connection_accepted")

	defer func() {
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "connection_closed")
	}()

	if err := s.conns.ServeConn(ctx, conn); err != nil {
		if ctx.Err() != nil {
			logging.Debug("Client socket error during shutdown",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
		logging.Warn("Client socket error",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
	}
}

func nextRetryDelay(current time.Duration) time.Duration {
	if current == 0 {
		return minAcceptRetryDelay
	}
	current *= 2
	if current > maxAcceptRetryDelay {
		return maxAcceptRetryDelay
	}
	return current
}
