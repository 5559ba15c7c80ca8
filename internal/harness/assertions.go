package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/streamparse/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Seq, event.Channel, event.Kind, formatValue(event.Value))
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against the result's trace and
// returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// matchesEvent reports whether event has the assertion's kind and, when
// set, its channel.
func matchesEvent(event TraceEvent, a Assertion) bool {
	if a.Channel != "" && event.Channel != a.Channel {
		return false
	}
	return event.Kind == a.Kind
}

// assertTraceContains checks if the trace contains an event of the given
// kind, with an equal value when one is specified.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	var want ir.Value
	if a.Value != nil {
		want = toTraceValue(a.Value)
	}
	for _, event := range trace {
		if !matchesEvent(event, a) {
			continue
		}
		if want == nil || ir.Equal(event.Value, want) {
			return nil
		}
	}

	expected := describeEvent(a.Channel, a.Kind)
	if want != nil {
		expected += " with value " + formatValue(want)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that events of the listed kinds appear in order.
// Other events may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Kinds) && event.Kind == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
		Actual:   fmt.Sprintf("no %s after %v", a.Kinds[next], a.Kinds[:next]),
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if matchesEvent(event, a) {
			count++
		}
	}
	if count == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d %s", *a.Count, describeEvent(a.Channel, a.Kind)),
		Actual:   fmt.Sprintf("%d found", count),
		Trace:    trace,
	}
}

// checkExpectations compares the run outcome with the scenario's expect
// block, adding an error for every mismatch.
func checkExpectations(scenario *Scenario, result *Result) {
	exp := scenario.Expect

	if result.Status != exp.Status {
		msg := fmt.Sprintf("status: expected %s, got %s", exp.Status, result.Status)
		if result.Error != "" {
			msg += " (" + result.Error + ")"
		}
		result.AddError(msg)
	}

	if exp.HasValue() {
		v, err := exp.ExpectedValue()
		if err != nil {
			result.AddError(err.Error())
		} else {
			want := toTraceValue(v)
			got := result.Value
			if got == nil {
				got = ir.Null{}
			}
			if !ir.Equal(want, got) {
				result.AddError(fmt.Sprintf("value: expected %s, got %s", formatValue(want), formatValue(got)))
			}
		}
	}

	if exp.Items != nil {
		checkList(result, "items", *exp.Items, result.Items)
	}
	if exp.Suffix != nil {
		checkList(result, "suffix", *exp.Suffix, result.Suffix)
	}

	if exp.ConsumedInput != nil && *exp.ConsumedInput != result.ConsumedInput {
		result.AddError(fmt.Sprintf("consumed_input: expected %t, got %t", *exp.ConsumedInput, result.ConsumedInput))
	}

	if exp.Error != "" && exp.Error != result.Error {
		result.AddError(fmt.Sprintf("error: expected %q, got %q", exp.Error, result.Error))
	}
}

func checkList(result *Result, field string, want []any, got []ir.Value) {
	wantVal := toTraceValue(want)
	gotVal := ir.Array(got)
	if gotVal == nil {
		gotVal = ir.Array{}
	}
	if !ir.Equal(wantVal, gotVal) {
		result.AddError(fmt.Sprintf("%s: expected %s, got %s", field, formatValue(wantVal), formatValue(gotVal)))
	}
}

// checkSamples evaluates the scenario's integer test against its samples.
func checkSamples(scenario *Scenario, result *Result) {
	if scenario.Samples == nil || scenario.test == nil {
		return
	}
	for _, v := range scenario.Samples.Accept {
		if !scenario.test.Test(v) {
			result.AddError(fmt.Sprintf("sample: %s should accept %d", scenario.test, v))
		}
	}
	for _, v := range scenario.Samples.Reject {
		if scenario.test.Test(v) {
			result.AddError(fmt.Sprintf("sample: %s should reject %d", scenario.test, v))
		}
	}
}

func describeEvent(channel, kind string) string {
	if channel == "" {
		return kind + " event"
	}
	return channel + " " + kind + " event"
}

// formatValue renders v as canonical JSON for messages.
func formatValue(v ir.Value) string {
	if v == nil {
		return "-"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
