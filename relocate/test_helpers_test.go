package relocate_test

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/marcoimbee/thesis-archive/relocate"
	"github.com/marcoimbee/thesis-archive/relocate/directory"
	"github.com/marcoimbee/thesis-archive/relocate/latency"
)

// fakeClock advances on Sleep and cancels the loop after cancelAfter sleeps.
type fakeClock struct {
	now         time.Time
	sleeps      []time.Duration
	cancelAfter int
	cancel      context.CancelFunc
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	if f.cancel != nil && len(f.sleeps) >= f.cancelAfter {
		f.cancel()
	}
}

// pinned returns annotations that pin an instance to node.
func pinned(node string) map[string]string {
	return map[string]string{relocate.AnnotationNodeIDMatchAny: node}
}

// scenarioABC builds the three-node cluster used across tests:
// A (12.5ms) hosts a1, a2; B (4.0ms) hosts pinned b1; C (9.1ms) hosts c1.
func scenarioABC() (*directory.Memory, *latency.Memory) {
	dir := directory.NewMemory().
		AddNode("A", relocate.Capabilities{"num_cpus": 4}).
		AddNode("B", relocate.Capabilities{"num_cpus": 8}).
		AddNode("C", relocate.Capabilities{"num_cpus": 2}).
		AddInstance("a1", "A", "RUST_WASM", nil).
		AddInstance("a2", "A", "RUST_WASM", nil).
		AddInstance("b1", "B", "RUST_WASM", pinned("B")).
		AddInstance("c1", "C", "RUST_WASM", nil)
	lat := latency.NewMemory().
		SetController("A", 12.5).
		SetController("B", 4.0).
		SetController("C", 9.1)
	return dir, lat
}

// newTestBuilder returns a builder with a silent logger and its hook.
func newTestBuilder(dir relocate.Directory, lat relocate.LatencyStore, peers []relocate.NodePair) (*relocate.Builder, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	b := relocate.NewBuilder(dir, lat, peers)
	b.Log = logger
	b.Clock = newFakeClock()
	return b, hook
}

// snapshotOf builds a snapshot directly from node → (latency, instances) data.
// Instance ids ending in "!" are pinned to their node (the "!" is dropped).
func snapshotOf(nodes map[relocate.NodeID]float64, hosted map[relocate.NodeID][]string) *relocate.Snapshot {
	snap := &relocate.Snapshot{
		Nodes:     make(map[relocate.NodeID]*relocate.NodeRecord),
		Instances: make(map[relocate.InstanceID]*relocate.InstanceRecord),
		Placement: make(map[relocate.InstanceID]relocate.NodeID),
	}
	for id, l := range nodes {
		snap.Nodes[id] = &relocate.NodeRecord{
			ID:                id,
			ControllerLatency: l,
			PeerLatency:       make(map[relocate.NodeID]float64),
			Providers:         make(map[relocate.ProviderID]struct{}),
		}
	}
	for node, ids := range hosted {
		for _, raw := range ids {
			var ann map[string]string
			id := raw
			if len(raw) > 0 && raw[len(raw)-1] == '!' {
				id = raw[:len(raw)-1]
				ann = pinned(string(node))
			}
			req := relocate.ParseRequirement(ann)
			iid := relocate.InstanceID(id)
			snap.Instances[iid] = &relocate.InstanceRecord{ID: iid, Requirement: req, Relocatable: req.Relocatable()}
			snap.Placement[iid] = node
			snap.Nodes[node].Instances = append(snap.Nodes[node].Instances, iid)
		}
	}
	return snap
}
