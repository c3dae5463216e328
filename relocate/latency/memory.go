package latency

import (
	"context"
	"sync"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// Memory is an in-process LatencyStore for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	samples map[string]float64
}

// Ensure Memory implements relocate.LatencyStore
var _ relocate.LatencyStore = (*Memory)(nil)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{samples: make(map[string]float64)}
}

// SetController records a node→controller sample.
func (m *Memory) SetController(node relocate.NodeID, ms float64) *Memory {
	return m.set(Key(":", node, relocate.ControllerEndpoint), ms)
}

// SetBetween records a node→node sample.
func (m *Memory) SetBetween(src, dst relocate.NodeID, ms float64) *Memory {
	return m.set(Key(":", src, string(dst)), ms)
}

// Delete removes a node→node sample.
func (m *Memory) Delete(src relocate.NodeID, dst string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.samples, Key(":", src, dst))
}

// Controller implements relocate.LatencyStore.
func (m *Memory) Controller(_ context.Context, node relocate.NodeID) (float64, error) {
	return m.get(Key(":", node, relocate.ControllerEndpoint))
}

// Between implements relocate.LatencyStore.
func (m *Memory) Between(_ context.Context, src, dst relocate.NodeID) (float64, error) {
	return m.get(Key(":", src, string(dst)))
}

func (m *Memory) set(key string, ms float64) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[key] = ms
	return m
}

func (m *Memory) get(key string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.samples[key]
	if !ok {
		return 0, notFound(key)
	}
	return v, nil
}
