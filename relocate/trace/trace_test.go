package trace

import (
	"testing"
	"time"
)

func TestDecisionTrace_RecordCycle_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	dt := NewDecisionTrace(TraceLevelDecisions)

	// WHEN a cycle record is recorded
	dt.RecordCycle(CycleRecord{
		CycleID:  "c-1",
		Mode:     "migrate",
		Policy:   "closest",
		Started:  time.Unix(0, 0),
		Duration: 12 * time.Millisecond,
		Target:   "B",
		Reason:   "closest (latency=4.000ms)",
		Directives: []DirectiveRecord{
			{InstanceID: "a1", Source: "A", Destination: "B"},
		},
		Submitted: true,
	})

	// THEN the trace contains one record with correct data
	if len(dt.Cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(dt.Cycles))
	}
	if dt.Cycles[0].Target != "B" {
		t.Errorf("expected target B, got %s", dt.Cycles[0].Target)
	}
	if dt.Cycles[0].Failed() {
		t.Error("expected cycle not failed")
	}
}

func TestDecisionTrace_Disabled_DropsRecords(t *testing.T) {
	// GIVEN traces that are disabled in different ways
	for _, dt := range []*DecisionTrace{NewDecisionTrace(TraceLevelNone), NewDecisionTrace(""), nil} {
		// WHEN a record is recorded
		dt.RecordCycle(CycleRecord{CycleID: "c-1"})

		// THEN nothing is kept
		if dt.Enabled() {
			t.Errorf("expected disabled trace for level %v", dt)
		}
		if dt != nil && len(dt.Cycles) != 0 {
			t.Errorf("expected no cycles, got %d", len(dt.Cycles))
		}
	}
}

func TestDecisionTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	dt := NewDecisionTrace(TraceLevelDecisions)

	dt.RecordCycle(CycleRecord{CycleID: "c-1"})
	dt.RecordCycle(CycleRecord{CycleID: "c-2", Error: "directory unreachable"})
	dt.RecordCycle(CycleRecord{CycleID: "c-3"})

	if len(dt.Cycles) != 3 {
		t.Fatalf("expected 3 cycles, got %d", len(dt.Cycles))
	}
	for i, want := range []string{"c-1", "c-2", "c-3"} {
		if dt.Cycles[i].CycleID != want {
			t.Errorf("cycle %d: expected %s, got %s", i, want, dt.Cycles[i].CycleID)
		}
	}
	if !dt.Cycles[1].Failed() {
		t.Error("expected second cycle to be failed")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true},
		{"detailed", false},
		{"invalid", false},
	}
	for _, tc := range tests {
		if got := IsValidTraceLevel(tc.level); got != tc.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.valid)
		}
	}
}
