// Package trace provides decision-trace recording for relocation cycles.
// It does not import relocate/ and stores plain data types only.
package trace

import "time"

// DirectiveRecord captures one emitted migration directive.
type DirectiveRecord struct {
	InstanceID  string
	Source      string
	Destination string
}

// CycleRecord captures one control loop iteration.
type CycleRecord struct {
	CycleID    string
	Mode       string // "migrate", "monitor" or "bulk-move"
	Policy     string
	Started    time.Time
	Duration   time.Duration
	Target     string // destination chosen by the policy (empty if none)
	Reason     string
	Directives []DirectiveRecord
	Submitted  bool   // directives reached the directory or executor without error
	Error      string // non-empty when the cycle failed
}

// Failed reports whether the cycle ended with an error.
func (r CycleRecord) Failed() bool {
	return r.Error != ""
}
