package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wsecho/internal/capture"
	"github.com/muurk/wsecho/internal/discovery"
	"github.com/muurk/wsecho/internal/echo"
	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/version"
)

// shutdownCap bounds how long Shutdown waits for connection goroutines
const shutdownCap = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host             string
	Port             int
	Codec            string // "gobwas" (default) or "gorilla"
	LogLevel         string
	HandshakeTimeout time.Duration
	IdleTimeout      time.Duration // 0 = no idle timeout
	WriteTimeout     time.Duration
	MaxMessageSize   int64  // 0 = unlimited
	CaptureDir       string // Directory for JSONL capture files (empty = disabled)
	Advertise        bool   // Announce the server over mDNS
	Instance         string // mDNS instance name
}

// Addr returns the host:port the server binds
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server accepts connections and runs an echo.Handler for each one
type Server struct {
	config     *Config
	handler    *echo.Handler
	recorder   *capture.Recorder
	advertiser *discovery.Advertiser

	ctx    context.Context
	cancel context.CancelFunc

	wg          sync.WaitGroup
	mu          sync.Mutex
	listener    net.Listener
	activeConns map[net.Conn]struct{}
	closing     bool
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	codec, err := echo.CodecByName(config.Codec, config.MaxMessageSize)
	if err != nil {
		return nil, err
	}

	var recorder *capture.Recorder
	if config.CaptureDir != "" {
		recorder, err = capture.New(config.CaptureDir)
		if err != nil {
			return nil, fmt.Errorf("failed to enable capture: %w", err)
		}
		logging.Info("Capturing echoed messages", zap.String("file", recorder.Path()))
	}

	handler := echo.NewHandler(codec,
		echo.WithHandshakeTimeout(config.HandshakeTimeout),
		echo.WithIdleTimeout(config.IdleTimeout),
		echo.WithWriteTimeout(config.WriteTimeout),
		echo.WithRecorder(recorder),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:      config,
		handler:     handler,
		recorder:    recorder,
		ctx:         ctx,
		cancel:      cancel,
		activeConns: make(map[net.Conn]struct{}),
	}, nil
}

// Listen binds the configured address. A bind failure is returned as-is;
// there is no retry and no fallback port.
func (s *Server) Listen() error {
	addr := s.config.Addr()

	logging.Info("Starting WebSocket echo server",
		zap.String("addr", addr),
		zap.String("codec", s.handler.Codec().Name()),
		zap.String("log_level", s.config.LogLevel),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logging.Info("Server listening for connections", zap.String("addr", ln.Addr().String()))

	if s.config.Advertise {
		s.advertise(ln.Addr())
	}
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the address and blocks until shutdown
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Run()
}

// Run serves the bound listener until SIGINT/SIGTERM or an accept failure
func (s *Server) Run() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(ln)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Serve accepts connections on ln and handles each in its own goroutine.
// It returns nil once ln is closed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			// Back off on resource exhaustion (EMFILE and friends)
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			logging.Error("Failed to accept connection", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}

		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection runs the echo handler for a single connection
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "connection_accepted")

	defer func() {
		s.untrack(conn)
		logging.LogConnection(remoteAddr, "connection_closed")
	}()

	s.handler.Handle(s.ctx, conn)
}

// track registers conn and its goroutine. It fails once Shutdown has started.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	s.activeConns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.activeConns, conn)
	s.mu.Unlock()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	s.closing = true
	ln := s.listener
	adv := s.advertiser
	s.advertiser = nil
	s.mu.Unlock()

	if adv != nil {
		adv.Shutdown()
	}

	// Close listener to stop accepting new connections
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}

	// Handlers close their own connections once the context is done
	s.cancel()
	s.mu.Lock()
	for conn := range s.activeConns {
		logging.Debug("Closing active connection", zap.String("remote_addr", conn.RemoteAddr().String()))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(shutdownCap)
	defer timer.Stop()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-timer.C:
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	if err := s.recorder.Close(); err != nil {
		logging.Error("Error closing capture file", zap.Error(err))
	}

	logging.Sync()

	return nil
}

// ActiveConnections returns the number of active connections
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

// advertise announces the server over mDNS. Failure is logged, not fatal.
func (s *Server) advertise(addr net.Addr) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return
	}

	txt := []string{
		"codec=" + s.handler.Codec().Name(),
		"version=" + version.Version,
		"path=/",
	}
	adv, err := discovery.Advertise(s.config.Instance, tcpAddr.Port, txt)
	if err != nil {
		logging.Warn("Failed to advertise over mDNS", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.advertiser = adv
	s.mu.Unlock()
	logging.Info("Advertising over mDNS",
		zap.String("instance", adv.Instance()),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", tcpAddr.Port),
	)
}
