// Package server implements the Session / Protocol Layer: a TCP acceptor
// that frames newline-delimited commands per connection and runs command
// bodies on a shared worker pool.
//
// The acceptor itself is single-threaded: Serve's loop only accepts and
// hands connections off, so it never needs to synchronize over session
// state. Each accepted connection gets its own session, framing its own
// lines independently and in parallel with every other session.
package server

import (
	"net"

	"github.com/siddontang/loggers"

	"github.com/bobboyms/joinstore/pkg/command"
)

// Server accepts TCP connections and runs their command bodies on a shared
// Pool.
type Server struct {
	listener net.Listener
	executor *command.Executor
	pool     *Pool
	logger   loggers.Advanced
	metrics  sessionMetrics
}

// New wraps an already-bound listener. Workers is the pool's concurrency
// limit; <= 0 defaults to hardware concurrency, matching the "pool sized to
// hardware concurrency" scheduling model.
func New(listener net.Listener, executor *command.Executor, workers int, logger loggers.Advanced, metrics sessionMetrics) *Server {
	return &Server{
		listener: listener,
		executor: executor,
		pool:     NewPool(workers),
		logger:   logger,
		metrics:  metrics,
	}
}

// Serve accepts connections until the listener is closed, spawning a
// session goroutine per connection. It returns the error that ended the
// accept loop — typically net.ErrClosed after Close.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		sess := newSession(conn, s.executor, s.pool, s.logger, s.metrics)
		go sess.run()
	}
}

// Close stops accepting new connections and drains the worker pool,
// letting in-flight command bodies finish. It does not forcibly close
// existing sessions' connections; a session ends on its own once its
// client disconnects.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.pool.Close()
	return err
}

// Addr returns the listener's bound address, mainly useful when New was
// given a listener bound to port 0 (tests).
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
