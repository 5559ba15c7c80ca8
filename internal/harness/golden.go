package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/streamparse/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
// The run ID is left out so every run of a scenario has the same snapshot.
type TraceSnapshot struct {
	ScenarioName string
	Status       string
	Trace        []TraceEvent
}

// Snapshot builds the snapshot of a result.
func Snapshot(scenarioName string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: scenarioName,
		Status:       result.Status,
		Trace:        result.Trace,
	}
}

// ToValue converts the snapshot to its canonical form.
func (s TraceSnapshot) ToValue() ir.Object {
	trace := make(ir.Array, len(s.Trace))
	for i, e := range s.Trace {
		trace[i] = e.ToValue()
	}
	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"status":        ir.String(s.Status),
		"trace":         trace,
	}
}

// Bytes returns the canonical JSON of the snapshot, newline terminated.
func (s TraceSnapshot) Bytes() ([]byte, error) {
	data, err := ir.MarshalCanonical(s.ToValue())
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result).Bytes()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
