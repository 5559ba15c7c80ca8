package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/streamparse/predicate"
)

// Scenario represents a conformance test loaded from YAML.
type Scenario struct {
	// Name is a unique identifier, also used for the golden file name.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Recognizer is a catalog name (see Recognizers).
	Recognizer string `yaml:"recognizer"`

	// Test is the integer predicate for integer recognizers, in any form
	// predicate.ToIntegerTest accepts.
	Test any `yaml:"test,omitempty"`

	// Input is the token list fed to the recognizer.
	Input []any `yaml:"input"`

	// FailWith makes the input stream error with this message after the
	// last token instead of completing.
	FailWith string `yaml:"fail_with,omitempty"`

	// RunID overrides the generated run identifier.
	RunID string `yaml:"run_id,omitempty"`

	Expect     Expectation `yaml:"expect"`
	Samples    *Samples    `yaml:"samples,omitempty"`
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// test is the converted Test, set by validateScenario.
	test predicate.IntegerTest
}

// Expectation describes the expected outcome of a run.
// Unset fields are not checked.
type Expectation struct {
	Status string `yaml:"status"`

	// Value is kept as a node so an explicit null can be told apart from
	// an absent value.
	Value yaml.Node `yaml:"value,omitempty"`

	// Items are the values a capturer emitted before finishing.
	Items *[]any `yaml:"items,omitempty"`

	ConsumedInput *bool `yaml:"consumed_input,omitempty"`

	// Suffix is the full token list left after the match.
	Suffix *[]any `yaml:"suffix,omitempty"`

	// Error is the expected error message for error statuses.
	Error string `yaml:"error,omitempty"`
}

// HasValue reports whether the scenario sets an expected value.
func (e *Expectation) HasValue() bool {
	return e.Value.Kind != 0
}

// ExpectedValue decodes the expected value.
func (e *Expectation) ExpectedValue() (any, error) {
	if !e.HasValue() {
		return nil, nil
	}
	var v any
	if err := e.Value.Decode(&v); err != nil {
		return nil, fmt.Errorf("expect.value: %w", err)
	}
	return v, nil
}

// Samples are values the scenario's integer predicate must accept or reject.
type Samples struct {
	Accept []int64 `yaml:"accept,omitempty"`
	Reject []int64 `yaml:"reject,omitempty"`
}

// Assertion is a check over the recorded trace.
type Assertion struct {
	// Type is one of trace_contains, trace_order or trace_count.
	Type string `yaml:"type"`

	Channel string `yaml:"channel,omitempty"`
	Kind    string `yaml:"kind,omitempty"`

	// Value is compared canonically for trace_contains.
	Value any `yaml:"value,omitempty"`

	// Kinds lists event kinds for trace_order.
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the exact count for trace_count.
	Count *int `yaml:"count,omitempty"`
}

// Run statuses.
const (
	StatusMatched     = "matched"
	StatusCaptured    = "captured"
	StatusFailed      = "failed"
	StatusError       = "error"
	StatusSuffixError = "suffix_error"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads, schema-validates and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, fails the
// schema, or names an unknown recognizer.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	if errs := Validate(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid scenario: %w", errors.Join(errs...))
	}

	// Strict decoding catches typos the schema let through.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks the fields the schema cannot: the recognizer
// must exist, and its integer test must convert.
func validateScenario(s *Scenario) error {
	entry, ok := lookupRecognizer(s.Recognizer)
	if !ok {
		return fmt.Errorf("unknown recognizer: %s", s.Recognizer)
	}

	if s.Test != nil {
		t, err := predicate.ToIntegerTest(s.Test)
		if err != nil {
			return fmt.Errorf("test: %w", err)
		}
		s.test = t
	}
	if entry.needsTest && s.test == nil {
		return fmt.Errorf("recognizer %s requires a test", s.Recognizer)
	}
	if s.Samples != nil && s.test == nil {
		return fmt.Errorf("samples require a test")
	}

	if entry.capturer != nil && s.Expect.Status == StatusMatched {
		return fmt.Errorf("expect.status: capturer %s finishes as %q, not %q", s.Recognizer, StatusCaptured, StatusMatched)
	}
	if entry.matcher != nil && (s.Expect.Status == StatusCaptured || s.Expect.Items != nil) {
		return fmt.Errorf("expect: matcher %s does not capture items", s.Recognizer)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type: %s", index, a.Type)
	}
	return nil
}
