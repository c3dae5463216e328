package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// Memory is an in-process Directory. It backs tests and dry runs.
type Memory struct {
	mu sync.Mutex

	instances map[relocate.InstanceID]instanceEntry
	nodes     map[relocate.NodeID]relocate.Capabilities
	providers map[relocate.ProviderID]relocate.NodeID

	// Submitted holds every batch passed to SubmitMigrationIntents.
	Submitted [][]relocate.MigrationDirective
	// SubmitErr, when set, is returned by SubmitMigrationIntents.
	SubmitErr error
}

// Ensure Memory implements relocate.Directory
var _ relocate.Directory = (*Memory)(nil)

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{
		instances: make(map[relocate.InstanceID]instanceEntry),
		nodes:     make(map[relocate.NodeID]relocate.Capabilities),
		providers: make(map[relocate.ProviderID]relocate.NodeID),
	}
}

// AddNode registers a node and its capabilities.
func (m *Memory) AddNode(id relocate.NodeID, caps relocate.Capabilities) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = caps
	return m
}

// AddInstance places an instance on node. An empty node leaves it unplaced.
func (m *Memory) AddInstance(id relocate.InstanceID, node relocate.NodeID, classType string, annotations map[string]string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[id] = instanceEntry{NodeID: string(node), ClassType: classType, Annotations: annotations}
	return m
}

// AddProvider registers a resource provider on node.
func (m *Memory) AddProvider(id relocate.ProviderID, node relocate.NodeID) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[id] = node
	return m
}

// ListInstanceRequests implements relocate.Directory.
func (m *Memory) ListInstanceRequests(_ context.Context) ([]relocate.InstanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]relocate.InstanceRequest, 0, len(m.instances))
	for id, e := range m.instances {
		out = append(out, relocate.InstanceRequest{ID: id, ClassType: e.ClassType, Annotations: e.Annotations})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListNodeCapabilities implements relocate.Directory.
func (m *Memory) ListNodeCapabilities(_ context.Context) ([]relocate.NodeCapability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]relocate.NodeCapability, 0, len(m.nodes))
	for id, caps := range m.nodes {
		out = append(out, relocate.NodeCapability{ID: id, Capabilities: caps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListNodeToInstances implements relocate.Directory.
func (m *Memory) ListNodeToInstances(_ context.Context) ([]relocate.NodeAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byNode := make(map[relocate.NodeID][]relocate.InstanceID)
	for id, e := range m.instances {
		if e.NodeID == "" {
			continue
		}
		byNode[relocate.NodeID(e.NodeID)] = append(byNode[relocate.NodeID(e.NodeID)], id)
	}
	out := make([]relocate.NodeAssignment, 0, len(byNode))
	for node, ids := range byNode {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, relocate.NodeAssignment{Node: node, Instances: ids})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out, nil
}

// ListResourceProviders implements relocate.Directory.
func (m *Memory) ListResourceProviders(_ context.Context) ([]relocate.ResourceProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]relocate.ResourceProvider, 0, len(m.providers))
	for id, node := range m.providers {
		out = append(out, relocate.ResourceProvider{ID: id, Node: node})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SubmitMigrationIntents implements relocate.Directory. Successful batches
// are also applied to the placement, as the orchestrator would.
func (m *Memory) SubmitMigrationIntents(_ context.Context, directives []relocate.MigrationDirective) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitErr != nil {
		return m.SubmitErr
	}
	batch := append([]relocate.MigrationDirective(nil), directives...)
	m.Submitted = append(m.Submitted, batch)
	for _, d := range directives {
		if e, ok := m.instances[d.Instance]; ok {
			e.NodeID = string(d.Destination)
			m.instances[d.Instance] = e
		}
	}
	return nil
}
