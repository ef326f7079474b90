// Command joinserver runs the concurrent in-memory join store over a
// newline-delimited TCP protocol.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bobboyms/joinstore/pkg/command"
	"github.com/bobboyms/joinstore/pkg/registry"
	"github.com/bobboyms/joinstore/pkg/server"
	"github.com/bobboyms/joinstore/pkg/telemetry"
)

type rootOptions struct {
	metricsAddr string
	logDir      string
	workers     int
}

func main() {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "joinserver <port>",
		Short: "Serve the A/B join store over TCP",
		Long: `joinserver listens on the given TCP port and serves the INSERT,
TRUNCATE, INTERSECTION, SYMMETRIC_DIFFERENCE and
PAUSED_IN_SYMMETRIC_DIFFERENCE commands against two in-memory tables, A and B.

The port must be a decimal number in 0-65535.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "address to serve Prometheus metrics on (empty disables)")
	cmd.Flags().StringVar(&opts.logDir, "log-dir", ".", "directory for the timestamped worker error log")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "worker pool size (defaults to hardware concurrency)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *rootOptions, portArg string) error {
	port, err := parsePort(portArg)
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(opts.logDir, time.Now())
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	reg := registry.New()
	exec := command.NewExecutor(reg, metrics)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}

	srv := server.New(ln, exec, opts.workers, logger, metrics)

	if opts.metricsAddr != "" {
		go serveMetrics(opts.metricsAddr, metrics, logger)
	}

	logger.Infof("joinserver listening on %s", ln.Addr())
	return srv.Serve()
}

// parsePort rejects anything that isn't a non-negative decimal integer in
// range, matching the original server's "port must be 0-65535" contract
// (including its somewhat permissive treatment of port 0).
func parsePort(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n > 65535 {
		return 0, fmt.Errorf("the program must be started with 1 parameter, the server port number, in range 0-65535")
	}
	return int(n), nil
}

func serveMetrics(addr string, metrics *telemetry.Metrics, logger interface{ Errorf(string, ...interface{}) }) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("metrics server stopped: %v", err)
	}
}
