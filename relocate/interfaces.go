package relocate

//go:generate mockgen -destination=mock_relocate.go -package=relocate github.com/marcoimbee/thesis-archive/relocate Migrator

import (
	"context"
	"time"
)

// Directory is the cluster state directory: the system of record for node
// capabilities, instance placement and pending migration intents.
type Directory interface {
	ListInstanceRequests(ctx context.Context) ([]InstanceRequest, error)
	ListNodeCapabilities(ctx context.Context) ([]NodeCapability, error)
	ListNodeToInstances(ctx context.Context) ([]NodeAssignment, error)
	ListResourceProviders(ctx context.Context) ([]ResourceProvider, error)
	// SubmitMigrationIntents writes all directives in one call.
	// The write is treated as atomic.
	SubmitMigrationIntents(ctx context.Context, directives []MigrationDirective) error
}

// LatencyStore exposes latency samples published by the external probes.
// Both methods return ErrKeyNotFound when no sample exists.
type LatencyStore interface {
	Controller(ctx context.Context, node NodeID) (float64, error)
	Between(ctx context.Context, src, dst NodeID) (float64, error)
}

// Migrator moves a single instance to a destination node.
type Migrator interface {
	Migrate(ctx context.Context, instance InstanceID, destination NodeID) error
}

// Clock abstracts time for the control loop.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration)
}

// realClock implements Clock using the time package.
type realClock struct{}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
