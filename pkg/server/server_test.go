package server_test

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bobboyms/joinstore/pkg/command"
	"github.com/bobboyms/joinstore/pkg/registry"
	"github.com/bobboyms/joinstore/pkg/server"
)

func startTestServer(t *testing.T) (addr string, closeFn func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	exec := command.NewExecutor(registry.New(), nil)
	logger := logrus.New()
	logger.SetOutput(new(discard))

	srv := server.New(ln, exec, 4, logger, nil)
	go srv.Serve()

	return ln.Addr().String(), func() { srv.Close() }
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestServerRoundTrip(t *testing.T) {
	addr, closeFn := startTestServer(t)
	defer closeFn()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(line string) []string {
		fmt.Fprintf(conn, "%s\n", line)
		var rows []string
		reader := bufio.NewReader(conn)
		for {
			row, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read response: %v", err)
			}
			row = row[:len(row)-1]
			rows = append(rows, row)
			if row == "OK" || (len(row) >= 4 && row[:4] == "ERR ") {
				return rows
			}
		}
	}

	if got := send("INSERT A 0 lean"); len(got) != 1 || got[0] != "OK" {
		t.Fatalf("INSERT => %v", got)
	}
	if got := send("INSERT B 0 lean"); len(got) != 1 || got[0] != "OK" {
		t.Fatalf("INSERT => %v", got)
	}
	if got := send("INTERSECTION"); len(got) != 2 || got[0] != "0,lean,lean" || got[1] != "OK" {
		t.Fatalf("INTERSECTION => %v", got)
	}
	if got := send("SHUFFLE"); len(got) != 1 || got[0] != "ERR Database command is not supported." {
		t.Fatalf("SHUFFLE => %v", got)
	}
}

func TestServerSessionsRunIndependently(t *testing.T) {
	addr, closeFn := startTestServer(t)
	defer closeFn()

	dial := func() net.Conn {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		return conn
	}

	a := dial()
	defer a.Close()
	b := dial()
	defer b.Close()

	fmt.Fprintf(a, "INSERT A 1 sweater\n")
	fmt.Fprintf(b, "INSERT A 2 frank\n")

	readOK := func(conn net.Conn) {
		reader := bufio.NewReader(conn)
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if line != "OK\n" {
			t.Fatalf("got %q, want OK", line)
		}
	}
	readOK(a)
	readOK(b)
}
