package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcoimbee/thesis-archive/relocate"
	"github.com/marcoimbee/thesis-archive/relocate/directory"
)

func TestMemory_SubmitAppliesPlacement(t *testing.T) {
	// GIVEN an instance on A
	mem := directory.NewMemory().
		AddNode("A", nil).
		AddNode("B", nil).
		AddInstance("i1", "A", "RUST_WASM", nil)

	// WHEN a directive moves it to B
	err := mem.SubmitMigrationIntents(context.Background(), []relocate.MigrationDirective{{Instance: "i1", Destination: "B"}})
	require.NoError(t, err)

	// THEN the batch is recorded and the placement follows
	require.Len(t, mem.Submitted, 1)
	assignments, err := mem.ListNodeToInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []relocate.NodeAssignment{{Node: "B", Instances: []relocate.InstanceID{"i1"}}}, assignments)
}

func TestMemory_SubmitErr_LeavesStateUntouched(t *testing.T) {
	mem := directory.NewMemory().AddNode("A", nil).AddInstance("i1", "A", "RUST_WASM", nil)
	mem.SubmitErr = relocate.ErrConnection

	err := mem.SubmitMigrationIntents(context.Background(), []relocate.MigrationDirective{{Instance: "i1", Destination: "B"}})

	assert.ErrorIs(t, err, relocate.ErrConnection)
	assert.Empty(t, mem.Submitted)
	assignments, _ := mem.ListNodeToInstances(context.Background())
	assert.Equal(t, relocate.NodeID("A"), assignments[0].Node)
}

func TestMemory_ListsAreSorted(t *testing.T) {
	mem := directory.NewMemory().
		AddNode("C", nil).AddNode("A", nil).
		AddInstance("z", "C", "RUST_WASM", nil).
		AddInstance("y", "C", "RUST_WASM", nil).
		AddProvider("p2", "A").AddProvider("p1", "C")
	ctx := context.Background()

	caps, err := mem.ListNodeCapabilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, relocate.NodeID("A"), caps[0].ID)

	assignments, err := mem.ListNodeToInstances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []relocate.InstanceID{"y", "z"}, assignments[0].Instances)

	providers, err := mem.ListResourceProviders(ctx)
	require.NoError(t, err)
	assert.Equal(t, relocate.ProviderID("p1"), providers[0].ID)
}
