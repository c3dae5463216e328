package trace

import "sort"

// TraceSummary aggregates statistics from a DecisionTrace.
type TraceSummary struct {
	TotalCycles        int
	FailedCycles       int
	TotalDirectives    int
	UniqueTargets      int
	TargetDistribution map[string]int // destination node → directives sent there
	MovedInstances     map[string]int // instance → times it was moved
}

// Summarize computes aggregate statistics from a DecisionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DecisionTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
		MovedInstances:     make(map[string]int),
	}
	if dt == nil {
		return summary
	}

	summary.TotalCycles = len(dt.Cycles)
	for _, c := range dt.Cycles {
		if c.Failed() {
			summary.FailedCycles++
		}
		if !c.Submitted {
			continue
		}
		for _, d := range c.Directives {
			summary.TotalDirectives++
			summary.TargetDistribution[d.Destination]++
			summary.MovedInstances[d.InstanceID]++
		}
	}
	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}

// Flapping returns instances moved more than once, the symptom of
// oscillating latencies under the continuous policy. Sorted by id.
func (s *TraceSummary) Flapping() []string {
	var out []string
	for id, n := range s.MovedInstances {
		if n > 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
