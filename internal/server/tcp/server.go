// Package tcp runs the listener that feeds connections to the session
// handler, one goroutine per connection.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Handler serves one established connection until it ends.
type Handler interface {
	Serve(ctx context.Context, conn net.Conn)
}

// Server owns the TCP listener and the set of live sessions. Stopping the
// server only closes the listener: sessions already running keep their
// connections until the client disconnects.
type Server struct {
	handler Handler
	log     *zap.Logger

	listener net.Listener

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New builds a server listening on addr, e.g. ":50000".
func New(addr string, handler Handler, log *zap.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Server{
		handler:  handler,
		log:      log,
		listener: listener,
	}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Stop closes the listener. Each accepted
// connection gets its own goroutine running the handler. Returns nil after
// a Stop, or the accept error otherwise.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.log.Info("connection accepted", zap.String("remote", conn.RemoteAddr().String()))
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler.Serve(ctx, conn)
		}()
	}
}

// Stop closes the listener so no further connections are accepted. Live
// sessions are untouched. Safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	if err := s.listener.Close(); err != nil {
		s.log.Warn("listener close failed", zap.Error(err))
	}
}

// Wait blocks until every live session has finished. Call after Stop when
// shutting the process down.
func (s *Server) Wait() {
	s.wg.Wait()
}
