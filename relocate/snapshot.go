package relocate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// Builder assembles a Snapshot from directory and latency store reads.
// It never writes to either.
type Builder struct {
	Directory Directory
	Latency   LatencyStore
	// Peers lists the node-to-node latencies needed by the active policy.
	Peers []NodePair
	Clock Clock
	Log   logrus.FieldLogger
}

// NewBuilder creates a Builder with the wall clock and the standard logger.
func NewBuilder(dir Directory, lat LatencyStore, peers []NodePair) *Builder {
	return &Builder{
		Directory: dir,
		Latency:   lat,
		Peers:     peers,
		Clock:     RealClock(),
		Log:       logrus.StandardLogger(),
	}
}

// Build reads the directory and latency store and returns a fresh snapshot.
// Unknown nodes or instances in the placement lists fail with ErrConsistency.
// Missing latency samples never fail the build; they degrade to +Inf.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Nodes:     make(map[NodeID]*NodeRecord),
		Instances: make(map[InstanceID]*InstanceRecord),
		Placement: make(map[InstanceID]NodeID),
		BuiltAt:   b.clock().Now(),
	}

	requests, err := b.Directory.ListInstanceRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing instance requests: %w", err)
	}
	for _, req := range requests {
		requirement := ParseRequirement(req.Annotations)
		snap.Instances[req.ID] = &InstanceRecord{
			ID:          req.ID,
			Runtime:     req.ClassType,
			Requirement: requirement,
			Relocatable: requirement.Relocatable(),
		}
	}

	capabilities, err := b.Directory.ListNodeCapabilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing node capabilities: %w", err)
	}
	for _, c := range capabilities {
		if _, dup := snap.Nodes[c.ID]; dup {
			return nil, fmt.Errorf("%w: node %s reported twice", ErrConsistency, c.ID)
		}
		snap.Nodes[c.ID] = &NodeRecord{
			ID:                c.ID,
			Capabilities:      c.Capabilities,
			Providers:         make(map[ProviderID]struct{}),
			ControllerLatency: math.Inf(1),
			PeerLatency:       make(map[NodeID]float64),
		}
		b.log().WithField("node", c.ID).Debug("fetched node capabilities")
	}

	assignments, err := b.Directory.ListNodeToInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing node assignments: %w", err)
	}
	if len(assignments) == 0 {
		b.log().Info("no function instances found")
	}
	for _, a := range assignments {
		node, ok := snap.Nodes[a.Node]
		if !ok {
			return nil, fmt.Errorf("%w: assignment names unknown node %s", ErrConsistency, a.Node)
		}
		for _, id := range a.Instances {
			if _, ok := snap.Instances[id]; !ok {
				return nil, fmt.Errorf("%w: node %s hosts unknown instance %s", ErrConsistency, a.Node, id)
			}
			if prev, dup := snap.Placement[id]; dup {
				return nil, fmt.Errorf("%w: instance %s placed on both %s and %s", ErrConsistency, id, prev, a.Node)
			}
			snap.Placement[id] = a.Node
			node.Instances = append(node.Instances, id)
		}
		b.log().WithFields(logrus.Fields{"node": a.Node, "instances": len(a.Instances)}).Debug("fetched function instances")
	}
	for _, node := range snap.Nodes {
		sort.Slice(node.Instances, func(i, j int) bool { return node.Instances[i] < node.Instances[j] })
	}

	providers, err := b.Directory.ListResourceProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resource providers: %w", err)
	}
	for _, p := range providers {
		node, ok := snap.Nodes[p.Node]
		if !ok {
			return nil, fmt.Errorf("%w: provider %s on unknown node %s", ErrConsistency, p.ID, p.Node)
		}
		node.Providers[p.ID] = struct{}{}
	}

	for _, id := range snap.SortedNodeIDs() {
		snap.Nodes[id].ControllerLatency = b.fetch(id, ControllerEndpoint, func() (float64, error) {
			return b.Latency.Controller(ctx, id)
		})
	}
	for _, pair := range b.Peers {
		src, ok := snap.Nodes[pair.Source]
		if !ok {
			continue
		}
		if _, ok := snap.Nodes[pair.Destination]; !ok {
			continue
		}
		src.PeerLatency[pair.Destination] = b.fetch(pair.Source, string(pair.Destination), func() (float64, error) {
			return b.Latency.Between(ctx, pair.Source, pair.Destination)
		})
	}

	return snap, nil
}

// fetch reads one latency sample, degrading absence or read errors to +Inf.
func (b *Builder) fetch(src NodeID, dst string, read func() (float64, error)) float64 {
	fields := logrus.Fields{"source": src, "destination": dst}
	v, err := read()
	switch {
	case errors.Is(err, ErrKeyNotFound):
		b.log().WithFields(fields).Warn("latency sample not found, assuming +Inf")
		return math.Inf(1)
	case err != nil:
		b.log().WithFields(fields).WithError(err).Error("failed to fetch latency sample, assuming +Inf")
		return math.Inf(1)
	case math.IsNaN(v) || v < 0:
		b.log().WithFields(fields).Warnf("ignoring invalid latency sample %v", v)
		return math.Inf(1)
	}
	b.log().WithFields(fields).Debugf("latency %.3f ms", v)
	return v
}

func (b *Builder) clock() Clock {
	if b.Clock == nil {
		return RealClock()
	}
	return b.Clock
}

func (b *Builder) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}
