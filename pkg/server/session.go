package server

import (
	"bufio"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/siddontang/loggers"

	"github.com/bobboyms/joinstore/pkg/command"
)

// session owns one client connection. Its own line framing is
// single-threaded: read a line, submit the command body to the shared pool,
// and block until that submission finishes before reading the next line.
// This keeps all per-session state (the scanner, the connection) free of
// locking, while distinct sessions still run fully in parallel against each
// other on the pool.
type session struct {
	id       string
	conn     net.Conn
	executor *command.Executor
	pool     *Pool
	logger   loggers.Advanced
	metrics  sessionMetrics
}

// sessionMetrics is the subset of telemetry.Metrics a session needs;
// spelled out here so pkg/server never imports pkg/telemetry directly.
type sessionMetrics interface {
	SessionOpened()
	SessionClosed()
}

func newSession(conn net.Conn, executor *command.Executor, pool *Pool, logger loggers.Advanced, metrics sessionMetrics) *session {
	id, err := uuid.NewV7()
	idStr := "unknown"
	if err == nil {
		idStr = id.String()
	}
	return &session{
		id:       idStr,
		conn:     conn,
		executor: executor,
		pool:     pool,
		logger:   logger,
		metrics:  metrics,
	}
}

// run frames newline-delimited commands off the connection until it closes
// or a system-level failure occurs in a command body. Session-level
// failures never take down the server; only this session's connection is
// affected.
func (s *session) run() {
	if s.metrics != nil {
		s.metrics.SessionOpened()
		defer s.metrics.SessionClosed()
	}
	defer s.conn.Close()

	s.logger.Infof("session %s: connected from %s", s.id, s.conn.RemoteAddr())

	scanner := bufio.NewScanner(s.conn)
	writer := bufio.NewWriter(s.conn)

	for scanner.Scan() {
		line := scanner.Text()
		done := make(chan struct{})

		s.pool.Submit(func() {
			defer close(done)
			s.handleLine(writer, line)
		})

		<-done
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warnf("session %s: read error: %v", s.id, err)
	}
	s.logger.Infof("session %s: disconnected", s.id)
}

// handleLine executes a single command body and writes its response. A
// panic inside command execution (an unexpected system-level failure, not a
// recognized protocol error) is caught, logged as an error — which the
// telemetry logger mirrors into the rotating error log — and the connection
// is closed without further writes, so run's next read fails and the
// session ends.
func (s *session) handleLine(w *bufio.Writer, line string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("session %s: command body panicked: %v", s.id, r)
			s.conn.Close()
		}
	}()

	for _, row := range s.executor.Execute(line) {
		fmt.Fprintf(w, "%s\n", row)
	}
	w.Flush()
}
