// Package relocate provides the latency-aware relocation engine: it decides
// which function instances to migrate between nodes of an edge cluster.
//
// # Reading Guide
//
// Start with these files:
//   - types.go: nodes, instances, directives and the per-cycle Snapshot
//   - snapshot.go: Builder, which reads the directory and the latency store
//   - policy.go: the closest-to-controller and threshold-offload policies
//   - controller.go: the migrate, monitor and bulk-move loops
//
// # Architecture
//
// Every cycle is read → decide → write:
//
//	Builder.Build ──▶ Policy.Decide ──▶ Emitter.Submit ──▶ sleep
//
// Policies are pure functions of a Snapshot, except ThresholdOffload which
// also reads and sets the RelocationState owned by the Controller.
// Nothing runs concurrently; every external call blocks the loop.
//
// The package defines ports; implementations live in sub-packages:
//   - relocate/directory/: cluster state directory (Redis, in-memory)
//   - relocate/latency/: latency samples (Redis, NATS JetStream KV, in-memory)
//   - relocate/executor/: external migration command for bulk-move
//   - relocate/trace/: per-cycle decision records
//
// # Errors
//
// Missing latency samples are not errors: they read as +Inf, so a node
// without a sample is never a closest-node target and never triggers the
// threshold policy. Placement lists that reference unknown nodes or
// instances abort the cycle with ErrConsistency; the loop carries on at the
// next tick.
package relocate
