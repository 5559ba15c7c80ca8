// Package harness runs conformance scenarios against the recognizers in
// package parse.
//
// A scenario names a recognizer from the catalog, feeds it a token list
// and checks the outcome: whether it matched, the produced value, whether
// input was consumed and which tokens were left for the next recognizer.
// Every observable event is recorded in a trace so runs can be compared
// against golden files and stored in the run log.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: odd_then_even
//	description: "Seq consumes one token per matcher"
//	recognizer: seq-odd-even
//	input: [1, 2, 3]
//	expect:
//	  status: matched
//	  value: [1, 2]
//	  consumed_input: true
//	  suffix: [3]
//	assertions:
//	  - type: trace_count
//	    channel: suffix
//	    kind: token
//	    count: 1
//
// Integer recognizers take their predicate from the test field, which
// accepts anything predicate.ToIntegerTest does (a number, a list, a
// {min, max} map or a list of them). Samples check that predicate directly:
//
//	test: [{min: 1, max: 5}]
//	samples:
//	  accept: [1, 5]
//	  reject: [0, 6]
//
// # Statuses
//
//   - matched: a matcher produced a match
//   - captured: a capturer finished with a Done step
//   - failed: the recognizer completed without producing a result
//   - error: the recognizer's output stream errored
//   - suffix_error: a match was produced but its suffix errored
//
// # Assertion Types
//
//   - trace_contains: an event with the given channel, kind and value exists
//   - trace_order: events of the listed kinds appear in that order
//   - trace_count: exactly count events match channel and kind
//
// # Validation
//
// Scenario documents are checked against an embedded CUE schema before
// they are decoded, so typos in field names and invalid statuses are
// reported with their path.
package harness
