package relocate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/marcoimbee/thesis-archive/relocate"
)

func bulkSnapshot() *relocate.Snapshot {
	return snapshotOf(
		map[relocate.NodeID]float64{"n1": 5, "n2": 7, "dest": 3},
		map[relocate.NodeID][]string{"n1": {"f1", "f2!"}, "n2": {"f3"}, "dest": {"f4"}},
	)
}

func TestConsolidate_StopsAtFirstFailure(t *testing.T) {
	// GIVEN four instances and a migrator that fails on the third
	ctrl := gomock.NewController(t)
	m := relocate.NewMockMigrator(ctrl)
	ctx := context.Background()
	boom := errors.New("exit status 1")
	gomock.InOrder(
		m.EXPECT().Migrate(ctx, relocate.InstanceID("f4"), relocate.NodeID("dest")).Return(nil),
		m.EXPECT().Migrate(ctx, relocate.InstanceID("f1"), relocate.NodeID("dest")).Return(nil),
		m.EXPECT().Migrate(ctx, relocate.InstanceID("f2"), relocate.NodeID("dest")).Return(boom),
	)

	// WHEN consolidating onto dest
	res := relocate.Consolidate(ctx, bulkSnapshot(), "dest", m, nil)

	// THEN two migrations succeeded and the fourth was never attempted
	assert.Equal(t, 2, res.Succeeded)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, boom)
}

func TestConsolidate_MovesEverythingIncludingPinned(t *testing.T) {
	// GIVEN a migrator that always succeeds
	ctrl := gomock.NewController(t)
	m := relocate.NewMockMigrator(ctrl)
	var moved []relocate.InstanceID
	m.EXPECT().Migrate(gomock.Any(), gomock.Any(), relocate.NodeID("dest")).
		DoAndReturn(func(_ context.Context, id relocate.InstanceID, _ relocate.NodeID) error {
			moved = append(moved, id)
			return nil
		}).Times(4)

	// WHEN consolidating onto dest
	res := relocate.Consolidate(context.Background(), bulkSnapshot(), "dest", m, nil)

	// THEN every instance is moved in node id then instance id order
	assert.True(t, res.OK)
	assert.Equal(t, 4, res.Succeeded)
	assert.NoError(t, res.Err)
	assert.Equal(t, []relocate.InstanceID{"f4", "f1", "f2", "f3"}, moved)
}

func TestConsolidate_EmptyCluster(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := relocate.NewMockMigrator(ctrl)

	res := relocate.Consolidate(context.Background(), snapshotOf(map[relocate.NodeID]float64{"n1": 1}, nil), "n1", m, nil)

	assert.True(t, res.OK)
	assert.Zero(t, res.Succeeded)
}
