package relocate

import (
	"github.com/uber-go/tally"
)

// Metrics holds the controller's cycle, directive and bulk-move counters
// together with the relocatable-instance gauge and the cycle latency timer.
type Metrics struct {
	Cycles        tally.Counter
	CycleFailures tally.Counter
	Directives    tally.Counter
	BulkMoved     tally.Counter
	BulkFailures  tally.Counter

	RelocatableInstances tally.Gauge
	CycleLatency         tally.Timer
}

// NewMetrics allocates the controller metrics on scope. Outcomes are split
// by a result=success|fail tag. A nil scope discards everything.
func NewMetrics(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	successScope := scope.Tagged(map[string]string{"result": "success"})
	failScope := scope.Tagged(map[string]string{"result": "fail"})
	return &Metrics{
		Cycles:               successScope.Counter("cycles"),
		CycleFailures:        failScope.Counter("cycles"),
		Directives:           scope.Counter("directives"),
		BulkMoved:            successScope.Counter("bulk_migrations"),
		BulkFailures:         failScope.Counter("bulk_migrations"),
		RelocatableInstances: scope.Gauge("relocatable_instances"),
		CycleLatency:         scope.Timer("cycle_latency"),
	}
}
