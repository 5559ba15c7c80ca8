package harness

import (
	"github.com/roach88/streamparse/internal/ir"
)

// Trace channels.
const (
	// ChannelOutput carries what the recognizer emitted.
	ChannelOutput = "output"
	// ChannelSuffix carries the tokens left after the match.
	ChannelSuffix = "suffix"
)

// Trace event kinds.
const (
	KindMatch = "match"
	KindItem  = "item"
	KindDone  = "done"
	KindToken = "token"
	KindError = "error"
)

// TraceEvent is one observed event, stamped with a logical sequence number.
type TraceEvent struct {
	Seq           int64    `json:"seq"`
	Channel       string   `json:"channel"`
	Kind          string   `json:"kind"`
	Value         ir.Value `json:"value,omitempty"`
	ConsumedInput *bool    `json:"consumed_input,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// ToValue converts the event to its canonical form, omitting unset fields.
func (e TraceEvent) ToValue() ir.Object {
	obj := ir.Object{
		"seq":     ir.Int(e.Seq),
		"channel": ir.String(e.Channel),
		"kind":    ir.String(e.Kind),
	}
	if e.Value != nil {
		obj["value"] = e.Value
	}
	if e.ConsumedInput != nil {
		obj["consumed_input"] = ir.Bool(*e.ConsumedInput)
	}
	if e.Error != "" {
		obj["error"] = ir.String(e.Error)
	}
	return obj
}

// Result is the outcome of a scenario execution.
type Result struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`

	// Status is one of the Status constants.
	Status string `json:"status"`

	// Pass indicates every expectation, sample and assertion held.
	Pass bool `json:"pass"`

	// Value is the matched value; nil unless Status is matched.
	Value ir.Value `json:"value,omitempty"`

	// Items are the values a capturer emitted.
	Items []ir.Value `json:"items,omitempty"`

	ConsumedInput bool `json:"consumed_input"`

	// Suffix is every token delivered by the match suffix.
	Suffix []ir.Value `json:"suffix,omitempty"`

	// Error is the message of the error that ended the run, if any.
	Error string `json:"error,omitempty"`

	// Trace contains all output and suffix events in order.
	Trace []TraceEvent `json:"trace"`

	// Digest identifies the trace; equal digests mean identical traces.
	Digest string `json:"digest"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID, scenario string) *Result {
	return &Result{
		RunID:    runID,
		Scenario: scenario,
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// TraceValue returns the trace as a canonical array.
func (r *Result) TraceValue() ir.Array {
	arr := make(ir.Array, len(r.Trace))
	for i, e := range r.Trace {
		arr[i] = e.ToValue()
	}
	return arr
}
