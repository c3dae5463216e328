package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/marcoimbee/thesis-archive/relocate"
	"github.com/marcoimbee/thesis-archive/relocate/directory"
	"github.com/marcoimbee/thesis-archive/relocate/latency"
	"github.com/marcoimbee/thesis-archive/relocate/trace"
)

// connectTimeout bounds the startup connectivity check.
const connectTimeout = 5 * time.Second

// stores bundles the external ports a controller needs.
type stores struct {
	Directory relocate.Directory
	Latency   relocate.LatencyStore
	closers   []io.Closer
}

// Close releases every opened connection.
func (s *stores) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warn("closing store")
		}
	}
}

// openStores connects to the directory and the latency store.
// Failures wrap relocate.ErrConnection.
func openStores(ctx context.Context, cfg *relocate.Config) (*stores, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	s := &stores{}
	dir, err := directory.Dial(ctx, cfg.Directory.URL)
	if err != nil {
		return nil, err
	}
	s.Directory = dir
	s.closers = append(s.closers, dir)

	switch cfg.Latency.Backend {
	case relocate.BackendRedis:
		lat, err := latency.DialRedis(ctx, cfg.Latency.URL, cfg.Latency.ControllerKey)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Latency = lat
		s.closers = append(s.closers, lat)
	case relocate.BackendNATS:
		lat, err := latency.DialNATS(ctx, cfg.Latency.URL, cfg.Latency.Bucket, cfg.Latency.ControllerKey)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Latency = lat
		s.closers = append(s.closers, lat)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown latency backend %q", cfg.Latency.Backend)
	}
	return s, nil
}

// mustOpenStores exits the process when a backend is unreachable.
func mustOpenStores(ctx context.Context, cfg *relocate.Config) *stores {
	s, err := openStores(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Startup failed: %v", err)
	}
	return s
}

// newController wires a Controller for mode. migrator is only used by bulk-move.
func newController(cfg *relocate.Config, s *stores, scope tally.Scope, mode string, migrator relocate.Migrator) (*relocate.Controller, error) {
	if !trace.IsValidTraceLevel(traceLevel) {
		return nil, fmt.Errorf("unknown trace level %q", traceLevel)
	}

	var policy relocate.Policy
	var peers []relocate.NodePair
	if mode == relocate.ModeMigrate {
		var err error
		// The controller owns the threshold policy's sticky state for the process lifetime.
		policy, err = relocate.NewPolicy(cfg.Policy, &relocate.RelocationState{})
		if err != nil {
			return nil, err
		}
		peers = relocate.PeersFor(cfg.Policy)
	}

	builder := relocate.NewBuilder(s.Directory, s.Latency, peers)
	builder.Log = logrus.WithField("component", "snapshot")

	return &relocate.Controller{
		Builder:   builder,
		Policy:    policy,
		Emitter:   &relocate.Emitter{Directory: s.Directory},
		Migrator:  migrator,
		Intervals: cfg.Intervals,
		Trace:     trace.NewDecisionTrace(trace.TraceLevel(traceLevel)),
		Metrics:   relocate.NewMetrics(scope),
		Log:       logrus.WithField("mode", mode),
	}, nil
}

// printTraceSummary writes trace statistics to stdout when tracing is on.
func printTraceSummary(dt *trace.DecisionTrace) {
	if !dt.Enabled() {
		return
	}
	writeTraceSummary(os.Stdout, trace.Summarize(dt))
}

func writeTraceSummary(w io.Writer, s *trace.TraceSummary) {
	_, _ = fmt.Fprintln(w, "=== Relocation Trace Summary ===")
	_, _ = fmt.Fprintf(w, "Cycles: %d (failed: %d)\n", s.TotalCycles, s.FailedCycles)
	_, _ = fmt.Fprintf(w, "Directives: %d across %d targets\n", s.TotalDirectives, s.UniqueTargets)
	targets := make([]string, 0, len(s.TargetDistribution))
	for target := range s.TargetDistribution {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		_, _ = fmt.Fprintf(w, "  %s: %d\n", target, s.TargetDistribution[target])
	}
	if flapping := s.Flapping(); len(flapping) > 0 {
		_, _ = fmt.Fprintf(w, "Moved more than once: %v\n", flapping)
	}
}
