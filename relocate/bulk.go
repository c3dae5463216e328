package relocate

import (
	"context"

	"github.com/sirupsen/logrus"
)

// BulkResult reports the outcome of a consolidation run.
type BulkResult struct {
	Succeeded int  // migrations that completed before the first failure
	OK        bool // true when every migration succeeded
	Err       error
}

// Consolidate moves every instance of every node to destination, ignoring
// relocatability. Migrations run one at a time in node id then instance id
// order and stop at the first failure.
func Consolidate(ctx context.Context, snap *Snapshot, destination NodeID, m Migrator, log logrus.FieldLogger) BulkResult {
	if log == nil {
		log = logrus.StandardLogger()
	}
	succeeded := 0
	for _, p := range placements(snap) {
		fields := logrus.Fields{"instance": p.instance, "from": p.node, "to": destination}
		if err := m.Migrate(ctx, p.instance, destination); err != nil {
			log.WithFields(fields).WithError(err).Error("migration failed, aborting bulk move")
			return BulkResult{Succeeded: succeeded, OK: false, Err: err}
		}
		succeeded++
		log.WithFields(fields).Info("successfully moved")
	}
	return BulkResult{Succeeded: succeeded, OK: true}
}

type placement struct {
	node     NodeID
	instance InstanceID
}

// placements lists every hosted instance in node id then instance id order.
func placements(snap *Snapshot) []placement {
	var out []placement
	for _, nodeID := range snap.SortedNodeIDs() {
		for _, id := range snap.Nodes[nodeID].Instances {
			out = append(out, placement{node: nodeID, instance: id})
		}
	}
	return out
}
