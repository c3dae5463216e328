package relocate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marcoimbee/thesis-archive/relocate/trace"
)

// Controller modes.
const (
	ModeMigrate  = "migrate"
	ModeMonitor  = "monitor"
	ModeBulkMove = "bulk-move"
)

// Controller owns the iteration cadence: it builds a snapshot, asks the
// policy for directives, emits them and sleeps. It is the only caller of the
// builder, the policy and the emitter; nothing here runs concurrently.
type Controller struct {
	Builder   *Builder
	Policy    Policy // nil in monitor and bulk-move modes
	Emitter   *Emitter
	Migrator  Migrator // bulk-move only
	Intervals IntervalConfig
	Clock     Clock
	Trace     *trace.DecisionTrace
	Metrics   *Metrics
	Log       logrus.FieldLogger

	iteration int
	newID     func() string
}

// CycleResult is the outcome of one migrate cycle.
type CycleResult struct {
	Decision  Decision
	Submitted int
}

// RelocatableEntry is one line of a monitor report.
type RelocatableEntry struct {
	Instance InstanceID
	Node     NodeID
}

// Iterations returns how many cycles have started.
func (c *Controller) Iterations() int { return c.iteration }

// MigrateOnce runs a single build → decide → emit cycle.
func (c *Controller) MigrateOnce(ctx context.Context) (CycleResult, error) {
	if c.Policy == nil {
		return CycleResult{}, fmt.Errorf("migrate mode requires a policy")
	}
	rec, start := c.beginCycle(ModeMigrate)
	rec.Policy = c.Policy.Name()
	log := c.log().WithField("cycle", rec.CycleID)

	snap, err := c.Builder.Build(ctx)
	if err != nil {
		c.endCycle(&rec, start, err)
		return CycleResult{}, fmt.Errorf("building snapshot: %w", err)
	}
	c.metrics().RelocatableInstances.Update(float64(countRelocatable(snap)))

	decision := c.Policy.Decide(snap)
	rec.Target = string(decision.Target)
	rec.Reason = decision.Reason
	for _, d := range decision.Directives {
		from, _ := snap.NodeOf(d.Instance)
		rec.Directives = append(rec.Directives, trace.DirectiveRecord{
			InstanceID:  string(d.Instance),
			Source:      string(from),
			Destination: string(d.Destination),
		})
		log.WithFields(logrus.Fields{"instance": d.Instance, "from": from, "to": d.Destination}).Info("relocating")
	}
	log.WithField("target", decision.Target).Info(decision.Reason)

	n, err := c.Emitter.Submit(ctx, decision.Directives)
	if err != nil {
		c.endCycle(&rec, start, err)
		return CycleResult{Decision: decision}, err
	}
	if committer, ok := c.Policy.(Committer); ok {
		committer.Commit(decision)
	}
	rec.Submitted = true
	c.metrics().Directives.Inc(int64(n))
	c.endCycle(&rec, start, nil)
	log.Infof("%d migrations, redistribution time: %d ms", n, c.clock().Now().Sub(start).Milliseconds())
	return CycleResult{Decision: decision, Submitted: n}, nil
}

// MonitorOnce builds a snapshot and reports relocatable instances without
// emitting anything.
func (c *Controller) MonitorOnce(ctx context.Context) ([]RelocatableEntry, error) {
	rec, start := c.beginCycle(ModeMonitor)
	log := c.log().WithField("cycle", rec.CycleID)

	snap, err := c.Builder.Build(ctx)
	if err != nil {
		c.endCycle(&rec, start, err)
		return nil, fmt.Errorf("building snapshot: %w", err)
	}

	var entries []RelocatableEntry
	for _, nodeID := range snap.SortedNodeIDs() {
		for _, id := range snap.RelocatableOn(nodeID) {
			entries = append(entries, RelocatableEntry{Instance: id, Node: nodeID})
			log.WithFields(logrus.Fields{"instance": id, "node": nodeID}).Info("instance is relocatable")
		}
	}
	c.metrics().RelocatableInstances.Update(float64(len(entries)))
	rec.Reason = fmt.Sprintf("%d relocatable instances", len(entries))
	c.endCycle(&rec, start, nil)
	return entries, nil
}

// RunBulk builds one snapshot and moves every instance to destination.
// It does not loop. Cancelling ctx does not interrupt it; each migration is
// bounded by the migrator's own timeout.
func (c *Controller) RunBulk(ctx context.Context, destination NodeID) (BulkResult, error) {
	if c.Migrator == nil {
		return BulkResult{}, fmt.Errorf("bulk-move requires a migrator")
	}
	ctx = context.WithoutCancel(ctx)
	rec, start := c.beginCycle(ModeBulkMove)
	rec.Policy = PolicyBulk
	rec.Target = string(destination)

	snap, err := c.Builder.Build(ctx)
	if err != nil {
		c.endCycle(&rec, start, err)
		return BulkResult{}, fmt.Errorf("building snapshot: %w", err)
	}

	res := Consolidate(ctx, snap, destination, c.Migrator, c.log().WithField("cycle", rec.CycleID))
	for _, p := range placements(snap)[:res.Succeeded] {
		rec.Directives = append(rec.Directives, trace.DirectiveRecord{
			InstanceID:  string(p.instance),
			Source:      string(p.node),
			Destination: string(destination),
		})
	}
	c.metrics().BulkMoved.Inc(int64(res.Succeeded))
	if !res.OK {
		c.metrics().BulkFailures.Inc(1)
	}
	rec.Submitted = true
	rec.Reason = fmt.Sprintf("bulk-move (%d moved)", res.Succeeded)
	c.endCycle(&rec, start, res.Err)
	return res, nil
}

// RunMigrate repeats MigrateOnce every relocation interval until ctx is done.
func (c *Controller) RunMigrate(ctx context.Context) error {
	return c.loop(ctx, c.Intervals.Relocation(), func(ctx context.Context) error {
		_, err := c.MigrateOnce(ctx)
		return err
	})
}

// RunMonitor repeats MonitorOnce every monitor interval until ctx is done.
func (c *Controller) RunMonitor(ctx context.Context) error {
	return c.loop(ctx, c.Intervals.Monitor(), func(ctx context.Context) error {
		_, err := c.MonitorOnce(ctx)
		return err
	})
}

// loop runs step, sleeps, then checks for cancellation. A failing step only
// aborts its own iteration. Cancellation is observed once per iteration,
// after the sleep; steps run on a context that ctx cannot cancel, so
// in-flight reads and writes always complete.
func (c *Controller) loop(ctx context.Context, interval time.Duration, step func(context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}
	work := context.WithoutCancel(ctx)
	for {
		switch err := step(work); {
		case errors.Is(err, context.Canceled):
			c.log().WithError(err).Infof("iteration %d interrupted", c.iteration)
		case err != nil:
			c.log().WithError(err).Errorf("iteration %d failed", c.iteration)
		}
		c.clock().Sleep(ctx, interval)
		if ctx.Err() != nil {
			c.log().Infof("stopping after %d iterations", c.iteration)
			return nil
		}
	}
}

func (c *Controller) beginCycle(mode string) (trace.CycleRecord, time.Time) {
	c.iteration++
	if c.newID == nil {
		c.newID = func() string { return uuid.NewString() }
	}
	start := c.clock().Now()
	rec := trace.CycleRecord{
		CycleID: c.newID(),
		Mode:    mode,
		Started: start,
	}
	c.log().WithFields(logrus.Fields{"cycle": rec.CycleID, "mode": mode}).Infof("%d-th iteration", c.iteration)
	return rec, start
}

func (c *Controller) endCycle(rec *trace.CycleRecord, start time.Time, err error) {
	rec.Duration = c.clock().Now().Sub(start)
	c.metrics().CycleLatency.Record(rec.Duration)
	switch {
	case errors.Is(err, context.Canceled):
		rec.Error = err.Error()
	case err != nil:
		rec.Error = err.Error()
		c.metrics().CycleFailures.Inc(1)
	default:
		c.metrics().Cycles.Inc(1)
	}
	c.Trace.RecordCycle(*rec)
}

func countRelocatable(snap *Snapshot) int {
	n := 0
	for id := range snap.Placement {
		if snap.Instances[id].Relocatable {
			n++
		}
	}
	return n
}

func (c *Controller) clock() Clock {
	if c.Clock == nil {
		c.Clock = RealClock()
	}
	return c.Clock
}

func (c *Controller) metrics() *Metrics {
	if c.Metrics == nil {
		c.Metrics = NewMetrics(nil)
	}
	return c.Metrics
}

func (c *Controller) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
