// Package server owns the telnet listener and the per-connection
// session workers. One goroutine per connection; the accept loop
// enforces the connection cap with a counting semaphore and drains
// workers on shutdown before force-closing stragglers.
package server

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hobbsbbs/hobbs/internal/i18n"
	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/internal/screen"
	"github.com/hobbsbbs/hobbs/internal/session"
	"github.com/hobbsbbs/hobbs/internal/telemetry"
	"github.com/hobbsbbs/hobbs/internal/telnet"
	"github.com/hobbsbbs/hobbs/pkg/config"
)

// Server accepts telnet connections and runs one navigator worker per
// caller.
type Server struct {
	cfg  *config.Config
	deps screen.Deps
	nav  *screen.Navigator

	listener   net.Listener
	listenerMu sync.RWMutex

	// ListenerReady is closed once the listener accepts connections.
	// Tests synchronize on it.
	ListenerReady chan struct{}

	shutdown     chan struct{}
	shutdownOnce sync.Once
	shutdownCtx  context.Context
	cancelConns  context.CancelFunc

	activeConns sync.WaitGroup
	connCount   atomic.Int32
	// activeConnections maps session id to net.Conn for forced closure.
	activeConnections sync.Map
	connSemaphore     chan struct{}
}

// New builds a server from the configuration and the shared screen
// collaborators.
func New(cfg *config.Config, deps screen.Deps) *Server {
	var sem chan struct{}
	if cfg.Server.MaxConnections > 0 {
		sem = make(chan struct{}, cfg.Server.MaxConnections)
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:           cfg,
		deps:          deps,
		nav:           screen.NewNavigator(deps),
		ListenerReady: make(chan struct{}),
		shutdown:      make(chan struct{}),
		shutdownCtx:   shutdownCtx,
		cancelConns:   cancel,
		connSemaphore: sem,
	}
}

// Addr returns the bound listener address, nil before ListenerReady.
func (s *Server) Addr() net.Addr {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled or the listener
// fails. It returns nil on graceful shutdown.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	close(s.ListenerReady)

	logger.Info("telnet server listening",
		"addr", listener.Addr().String(),
		"max_connections", s.cfg.Server.MaxConnections)

	go func() {
		<-ctx.Done()
		s.initiateShutdown()
	}()

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.gracefulShutdown()
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("accept failed", logger.Err(err))
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)
		go s.serveConn(conn)
	}
}

// serveConn is the session worker. Registry unregistration, permit
// release and transport close are all deferred here so every exit path
// releases everything exactly once.
func (s *Server) serveConn(conn net.Conn) {
	sess := session.New(conn.RemoteAddr().String())
	lc := logger.NewLogContext(sess.ID, sess.PeerIP)
	ctx := logger.WithContext(s.shutdownCtx, lc)

	defer func() {
		s.activeConnections.Delete(sess.ID)
		s.deps.Registry.Unregister(sess.ID)
		_ = conn.Close()
		s.deps.Metrics.SessionEnded()
		s.connCount.Add(-1)
		if s.connSemaphore != nil {
			<-s.connSemaphore
		}
		s.activeConns.Done()
	}()

	s.activeConnections.Store(sess.ID, conn)
	s.deps.Registry.Register(sess)
	s.deps.Metrics.SessionStarted()

	ctx, span := telemetry.StartSessionSpan(ctx, sess.ID, sess.PeerAddr)
	defer span.End()

	logger.InfoCtx(ctx, "session started", logger.Peer(sess.PeerAddr))

	tconn := telnet.Wrap(conn)
	if err := tconn.Negotiate(); err != nil {
		logger.DebugCtx(ctx, "telnet negotiation failed", logger.Err(err))
		return
	}

	err := s.runWorker(ctx, tconn, sess)
	if err != nil {
		span.RecordError(err)
		logger.InfoCtx(ctx, "session ended",
			logger.State(sess.State.String()),
			"duration_ms", lc.DurationMs(),
			logger.Err(err))
		return
	}
	logger.InfoCtx(ctx, "session ended",
		logger.State(sess.State.String()),
		"duration_ms", lc.DurationMs())
}

// runWorker drives the navigator, converting handler panics into a
// clean close with a localized error line.
func (s *Server) runWorker(ctx context.Context, tconn *telnet.Conn, sess *session.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "session worker panic",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			cat := i18n.LoadOrDefault(sess.Language)
			_ = tconn.WriteText(cat.T("common.error") + "\n")
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.nav.Run(ctx, tconn, sess)
}

// initiateShutdown stops accepting, interrupts blocking reads and
// cancels worker contexts. Idempotent.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Info("telnet server shutting down",
			"active", s.connCount.Load())

		close(s.shutdown)

		s.listenerMu.Lock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.listenerMu.Unlock()

		// Unblock pending reads so workers notice the shutdown.
		deadline := time.Now().Add(100 * time.Millisecond)
		s.activeConnections.Range(func(_, value any) bool {
			if conn, ok := value.(net.Conn); ok {
				_ = conn.SetReadDeadline(deadline)
			}
			return true
		})

		s.cancelConns()
	})
}

// gracefulShutdown waits for workers within the configured timeout,
// then force-closes what remains.
func (s *Server) gracefulShutdown() error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("telnet server stopped")
		return nil
	case <-time.After(timeout):
		remaining := s.connCount.Load()
		logger.Warn("shutdown timeout exceeded, force-closing connections",
			"active", remaining)
		s.activeConnections.Range(func(_, value any) bool {
			if conn, ok := value.(net.Conn); ok {
				_ = conn.Close()
			}
			return true
		})
		s.activeConns.Wait()
		return fmt.Errorf("shutdown timeout: %d connections force-closed", remaining)
	}
}
