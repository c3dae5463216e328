package relocate

import (
	"fmt"
	"math"
)

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Directives []MigrationDirective
	Target     NodeID // chosen destination; empty when the policy did not select one
	Reason     string // human-readable explanation
}

// Policy turns a snapshot into migration directives.
// Implementations must not depend on map iteration order.
type Policy interface {
	Name() string
	Decide(snap *Snapshot) Decision
}

// Committer is implemented by policies that keep state across cycles.
// Commit is called only after the decision's directives were submitted.
type Committer interface {
	Commit(d Decision)
}

// ClosestToController moves every relocatable instance to the node with the
// lowest controller latency. It runs every cycle as a feedback controller;
// instances already on the target produce no directive.
type ClosestToController struct{}

// Name implements Policy.
func (c *ClosestToController) Name() string { return PolicyClosest }

// Decide implements Policy for ClosestToController.
func (c *ClosestToController) Decide(snap *Snapshot) Decision {
	target, latency, ok := ClosestNode(snap)
	if !ok {
		return Decision{Reason: "closest: no node with a latency sample"}
	}

	var directives []MigrationDirective
	for _, nodeID := range snap.SortedNodeIDs() {
		if nodeID == target {
			continue
		}
		for _, id := range snap.RelocatableOn(nodeID) {
			directives = append(directives, MigrationDirective{Instance: id, Destination: target})
		}
	}
	return Decision{
		Directives: directives,
		Target:     target,
		Reason:     fmt.Sprintf("closest (latency=%.3fms)", latency),
	}
}

// ClosestNode returns the node with minimum controller latency.
// Ties are broken by the lowest node id. Nodes without a sample (+Inf) are
// never returned; ok is false when no node has a finite latency.
func ClosestNode(snap *Snapshot) (NodeID, float64, bool) {
	best := NodeID("")
	bestLatency := math.Inf(1)
	for _, id := range snap.SortedNodeIDs() {
		l := snap.Nodes[id].ControllerLatency
		if l < bestLatency {
			best, bestLatency = id, l
		}
	}
	return best, bestLatency, best != ""
}

// ThresholdOffload moves up to MaxRelocations relocatable instances from
// Source to Destination once the Source→Destination latency drops below
// Threshold. It fires at most once per process; State records that once the
// directives have been submitted (see Commit).
type ThresholdOffload struct {
	Source         NodeID
	Destination    NodeID
	Threshold      float64 // ms
	MaxRelocations int
	State          *RelocationState
}

// NewThresholdOffload creates a ThresholdOffload bound to state.
func NewThresholdOffload(source, destination NodeID, threshold float64, maxRelocations int, state *RelocationState) *ThresholdOffload {
	if state == nil {
		state = &RelocationState{}
	}
	return &ThresholdOffload{
		Source:         source,
		Destination:    destination,
		Threshold:      threshold,
		MaxRelocations: maxRelocations,
		State:          state,
	}
}

// Name implements Policy.
func (t *ThresholdOffload) Name() string { return PolicyThreshold }

// Decide implements Policy for ThresholdOffload.
func (t *ThresholdOffload) Decide(snap *Snapshot) Decision {
	if t.State.Relocated {
		return Decision{Reason: "threshold: relocation round already performed"}
	}
	src, ok := snap.Nodes[t.Source]
	if !ok {
		return Decision{Reason: fmt.Sprintf("threshold: source %s not in snapshot", t.Source)}
	}
	if _, ok := snap.Nodes[t.Destination]; !ok {
		return Decision{Reason: fmt.Sprintf("threshold: destination %s not in snapshot", t.Destination)}
	}

	latency := src.LatencyTo(t.Destination)
	if !(latency < t.Threshold) {
		return Decision{Reason: fmt.Sprintf("threshold: latency %.3fms >= %.3fms", latency, t.Threshold)}
	}

	candidates := snap.RelocatableOn(t.Source)
	if limit := max(t.MaxRelocations, 0); len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return Decision{Reason: "threshold: nothing to relocate on source"}
	}

	directives := make([]MigrationDirective, 0, len(candidates))
	for _, id := range candidates {
		directives = append(directives, MigrationDirective{Instance: id, Destination: t.Destination})
	}
	return Decision{
		Directives: directives,
		Target:     t.Destination,
		Reason:     fmt.Sprintf("threshold (latency=%.3fms < %.3fms)", latency, t.Threshold),
	}
}

// Commit implements Committer. The round counts as performed only when
// it delivered at least one directive.
func (t *ThresholdOffload) Commit(d Decision) {
	if len(d.Directives) > 0 {
		t.State.Relocated = true
	}
}

// Policy names.
const (
	PolicyClosest   = "closest"
	PolicyThreshold = "threshold"
	PolicyBulk      = "bulk"
)

// ValidPolicies is the set of recognized policy names.
var ValidPolicies = map[string]bool{PolicyClosest: true, PolicyThreshold: true, PolicyBulk: true}

// IsValidPolicy returns true if name is a recognized policy.
func IsValidPolicy(name string) bool {
	return ValidPolicies[name]
}

// NewPolicy creates a continuous policy by name. The bulk policy is not a
// Policy; it is run through Consolidate. state is shared with the threshold
// policy and must outlive it.
func NewPolicy(cfg PolicyConfig, state *RelocationState) (Policy, error) {
	switch cfg.Name {
	case PolicyClosest:
		return &ClosestToController{}, nil
	case PolicyThreshold:
		return NewThresholdOffload(NodeID(cfg.SourceNode), NodeID(cfg.DestinationNode),
			cfg.LatencyThreshold, cfg.NumRelocations, state), nil
	case PolicyBulk:
		return nil, fmt.Errorf("policy %q runs through bulk-move, not the migrate loop", cfg.Name)
	default:
		return nil, fmt.Errorf("unknown policy %q", cfg.Name)
	}
}

// PeersFor returns the node pairs whose latency the builder must fetch for cfg.
func PeersFor(cfg PolicyConfig) []NodePair {
	if cfg.Name != PolicyThreshold {
		return nil
	}
	return []NodePair{{Source: NodeID(cfg.SourceNode), Destination: NodeID(cfg.DestinationNode)}}
}
