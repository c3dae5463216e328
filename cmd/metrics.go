package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	prom "github.com/m3db/prometheus_client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	tallyprom "github.com/uber-go/tally/prometheus"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// metricsRoot prefixes every controller metric.
const metricsRoot = "relocator"

// metricsSink owns the root metrics scope and, when Prometheus is enabled,
// the HTTP listener serving /metrics.
type metricsSink struct {
	Scope tally.Scope
	Addr  string // scrape address, empty unless Prometheus is enabled

	closer io.Closer
	server *http.Server
}

// openMetrics creates the root scope described by cfg. Without Prometheus
// the scope has no reporter and no flush loop, so its snapshot holds
// process totals for the exit summary.
func openMetrics(cfg relocate.MetricsConfig) (*metricsSink, error) {
	if !cfg.Prometheus.Enable {
		scope, closer := tally.NewRootScope(tally.ScopeOptions{Prefix: metricsRoot}, 0)
		return &metricsSink{Scope: scope, closer: closer}, nil
	}

	reporter := tallyprom.NewReporter(tallyprom.Options{
		Registerer: prom.NewRegistry(),
		OnRegisterError: func(err error) {
			logrus.WithError(err).Warn("registering prometheus metric")
		},
	})
	ln, err := net.Listen("tcp", cfg.Prometheus.ListenAddress)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics on %s: %w", cfg.Prometheus.ListenAddress, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reporter.HTTPHandler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("metrics endpoint stopped")
		}
	}()

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:         metricsRoot,
		CachedReporter: reporter,
		Separator:      tallyprom.DefaultSeparator,
	}, cfg.FlushInterval())
	logrus.Infof("Serving Prometheus metrics at http://%s/metrics", ln.Addr())
	return &metricsSink{Scope: scope, Addr: ln.Addr().String(), closer: closer, server: server}, nil
}

// mustOpenMetrics exits the process when the scrape listener cannot start.
func mustOpenMetrics(cfg *relocate.Config) *metricsSink {
	m, err := openMetrics(cfg.Metrics)
	if err != nil {
		logrus.Fatalf("Startup failed: %v", err)
	}
	return m
}

// Close flushes the scope and stops the scrape listener.
func (m *metricsSink) Close() {
	if err := m.closer.Close(); err != nil {
		logrus.WithError(err).Warn("closing metrics scope")
	}
	if m.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := m.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("stopping metrics endpoint")
	}
}

// printSummary writes process totals to stdout. Scopes that report to
// Prometheus only hold values since the last flush, so they print nothing.
func (m *metricsSink) printSummary() {
	if m.server != nil {
		return
	}
	snapshotter, ok := m.Scope.(interface{ Snapshot() tally.Snapshot })
	if !ok {
		return
	}
	writeMetricsSummary(os.Stdout, snapshotter.Snapshot())
}

func writeMetricsSummary(w io.Writer, snap tally.Snapshot) {
	var lines []string
	for _, c := range snap.Counters() {
		lines = append(lines, fmt.Sprintf("%s%s: %d", c.Name(), formatTags(c.Tags()), c.Value()))
	}
	for _, g := range snap.Gauges() {
		lines = append(lines, fmt.Sprintf("%s%s: %g", g.Name(), formatTags(g.Tags()), g.Value()))
	}
	sort.Strings(lines)
	_, _ = fmt.Fprintln(w, "=== Metrics Summary ===")
	for _, line := range lines {
		_, _ = fmt.Fprintf(w, "  %s\n", line)
	}
}

func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(tags))
	for k, v := range tags {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}
