package relocate

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Identity types
type NodeID string
type InstanceID string
type ProviderID string

// ControllerEndpoint is the destination used for node-to-controller latency samples.
const ControllerEndpoint = "controller"

// Annotation keys understood by ParseRequirement.
const (
	AnnotationNodeIDMatchAny   = "node_id_match_any"
	AnnotationLabelMatchAll    = "label_match_all"
	AnnotationResourceMatchAll = "resource_match_all"
	AnnotationTEE              = "tee"
	AnnotationTPM              = "tpm"
)

// Capabilities is the node capability descriptor as stored by the directory.
// The controller never interprets it; it is carried for logging and monitoring.
type Capabilities map[string]any

// DeploymentRequirement is the constraint set attached to a function instance.
type DeploymentRequirement struct {
	NodeIDMatchAny   []NodeID // instance may only run on one of these nodes
	LabelMatchAll    []string
	ResourceMatchAll []string
	TEE              bool
	TPM              bool
}

// ParseRequirement builds a DeploymentRequirement from instance annotations.
// Unknown annotations are ignored.
func ParseRequirement(annotations map[string]string) DeploymentRequirement {
	var req DeploymentRequirement
	for _, id := range splitList(annotations[AnnotationNodeIDMatchAny]) {
		req.NodeIDMatchAny = append(req.NodeIDMatchAny, NodeID(id))
	}
	req.LabelMatchAll = splitList(annotations[AnnotationLabelMatchAll])
	req.ResourceMatchAll = splitList(annotations[AnnotationResourceMatchAll])
	req.TEE = strings.EqualFold(strings.TrimSpace(annotations[AnnotationTEE]), "required")
	req.TPM = strings.EqualFold(strings.TrimSpace(annotations[AnnotationTPM]), "required")
	return req
}

// Relocatable reports whether the requirement leaves the placement open,
// i.e. no node affinity list is set. Other constraints do not matter.
func (r DeploymentRequirement) Relocatable() bool {
	return len(r.NodeIDMatchAny) == 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InstanceRequest is one entry of the directory's instance request listing.
type InstanceRequest struct {
	ID          InstanceID
	ClassType   string
	Annotations map[string]string
}

// NodeCapability is one entry of the directory's node capability listing.
type NodeCapability struct {
	ID           NodeID
	Capabilities Capabilities
}

// NodeAssignment lists the instances the directory places on one node.
type NodeAssignment struct {
	Node      NodeID
	Instances []InstanceID
}

// ResourceProvider is a resource provider and the node hosting it.
type ResourceProvider struct {
	ID   ProviderID
	Node NodeID
}

// InstanceRecord is the per-cycle view of one function instance.
type InstanceRecord struct {
	ID          InstanceID
	Runtime     string // function class type
	Requirement DeploymentRequirement
	Relocatable bool // derived from Requirement on every build
}

// NodeRecord is the per-cycle view of one node.
type NodeRecord struct {
	ID                NodeID
	Capabilities      Capabilities
	Instances         []InstanceID // sorted
	Providers         map[ProviderID]struct{}
	ControllerLatency float64            // ms; +Inf when no sample exists
	PeerLatency       map[NodeID]float64 // ms to designated peers; +Inf when no sample exists
}

// LatencyTo returns the latency to peer, or +Inf when the pair was not sampled.
func (n *NodeRecord) LatencyTo(peer NodeID) float64 {
	if v, ok := n.PeerLatency[peer]; ok {
		return v
	}
	return math.Inf(1)
}

// LatencySample is a directional scalar measurement in milliseconds.
// Destination is ControllerEndpoint for node-to-controller samples.
type LatencySample struct {
	Source      NodeID
	Destination string
	Millis      float64
}

// NodePair names a directional (source, destination) latency the builder should fetch.
type NodePair struct {
	Source      NodeID
	Destination NodeID
}

// MigrationDirective is a decision to move one instance to one node.
type MigrationDirective struct {
	Instance    InstanceID
	Destination NodeID
}

// RelocationState is process-lifetime state for the threshold policy.
// It is owned by the controller and never persisted.
type RelocationState struct {
	Relocated bool
}

// Snapshot is the topology view for one decision cycle.
// It is rebuilt from scratch every cycle and never mutated afterwards.
type Snapshot struct {
	Nodes     map[NodeID]*NodeRecord
	Instances map[InstanceID]*InstanceRecord
	Placement map[InstanceID]NodeID
	BuiltAt   time.Time
}

// SortedNodeIDs returns node ids in ascending order.
// Extremal-node selection must iterate in this order.
func (s *Snapshot) SortedNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NodeOf returns the node hosting the instance.
func (s *Snapshot) NodeOf(id InstanceID) (NodeID, bool) {
	n, ok := s.Placement[id]
	return n, ok
}

// RelocatableOn returns the relocatable instances hosted on node, in id order.
func (s *Snapshot) RelocatableOn(node NodeID) []InstanceID {
	rec, ok := s.Nodes[node]
	if !ok {
		return nil
	}
	var out []InstanceID
	for _, id := range rec.Instances {
		if inst, ok := s.Instances[id]; ok && inst.Relocatable {
			out = append(out, id)
		}
	}
	return out
}
