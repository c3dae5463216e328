package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every cycle and its directives.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// DecisionTrace collects cycle records for the lifetime of a controller.
// Not safe for concurrent use; the control loop is its only writer.
type DecisionTrace struct {
	Level  TraceLevel
	Cycles []CycleRecord
}

// NewDecisionTrace creates a DecisionTrace ready for recording.
func NewDecisionTrace(level TraceLevel) *DecisionTrace {
	return &DecisionTrace{
		Level:  level,
		Cycles: make([]CycleRecord, 0),
	}
}

// Enabled reports whether records are kept.
func (dt *DecisionTrace) Enabled() bool {
	return dt != nil && dt.Level == TraceLevelDecisions
}

// RecordCycle appends a cycle record. No-op when tracing is disabled.
func (dt *DecisionTrace) RecordCycle(record CycleRecord) {
	if !dt.Enabled() {
		return
	}
	dt.Cycles = append(dt.Cycles, record)
}
