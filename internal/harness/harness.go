package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/streamparse/internal/ir"
	"github.com/roach88/streamparse/internal/store"
	"github.com/roach88/streamparse/internal/testutil"
	"github.com/roach88/streamparse/parse"
	"github.com/roach88/streamparse/stream"
)

// DefaultTimeout bounds a single scenario run.
const DefaultTimeout = 5 * time.Second

// Harness is the scenario execution engine.
// Each run gets a fresh deterministic clock, so traces are reproducible.
type Harness struct {
	logger    *slog.Logger
	runIDs    RunIDGenerator
	timeout   time.Duration
	maxEvents int
	store     *store.Store
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithRunIDs sets the run ID generator. The default is UUIDv7RunIDs.
func WithRunIDs(g RunIDGenerator) Option {
	return func(h *Harness) { h.runIDs = g }
}

// WithTimeout bounds each run. The default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(h *Harness) { h.timeout = d }
}

// WithMaxEvents sets the per-channel event quota. Zero disables it.
func WithMaxEvents(n int) Option {
	return func(h *Harness) { h.maxEvents = n }
}

// WithStore records every run in st.
func WithStore(st *store.Store) Option {
	return func(h *Harness) { h.store = st }
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs:    UUIDv7RunIDs{},
		timeout:   DefaultTimeout,
		maxEvents: DefaultMaxEvents,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness and a fixed run ID, so
// the result is byte-for-byte reproducible.
func Run(scenario *Scenario) (*Result, error) {
	h := New(WithRunIDs(testutil.NewFixedRunIDs("")))
	return h.Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Build the recognizer from the catalog
//  2. Feed it the scenario input, failing with fail_with if set
//  3. Record output events, then drain and record the suffix
//  4. Evaluate expectations, samples and assertions
//  5. Record the run in the store, if configured
//
// A returned error means the run could not complete (timeout, quota, store
// failure). Recognizer errors are outcomes, reported through Status.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	e, ok := lookupRecognizer(scenario.Recognizer)
	if !ok {
		return nil, fmt.Errorf("unknown recognizer: %s", scenario.Recognizer)
	}
	if e.needsTest && scenario.test == nil {
		return nil, fmt.Errorf("recognizer %s requires a test", scenario.Recognizer)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	runID := scenario.RunID
	if runID == "" {
		runID = h.runIDs.Generate()
	}
	logger := h.logger.With("scenario", scenario.Name, "run_id", runID)
	logger.Debug("run started", "recognizer", scenario.Recognizer, "tokens", len(scenario.Input))

	runCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	r := &run{
		h:      h,
		ctx:    runCtx,
		clock:  testutil.NewDeterministicClock(),
		result: NewResult(runID, scenario.Name),
	}

	input := scenarioInput(scenario)
	var err error
	if e.matcher != nil {
		err = r.match(e.matcher(scenario.test), input)
	} else {
		err = r.capture(e.capturer(scenario.test), input)
	}
	if err != nil {
		logger.Warn("run aborted", "error", err)
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := r.result
	checkExpectations(scenario, result)
	checkSamples(scenario, result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	result.Digest, err = ir.Digest(ir.DomainTrace, result.TraceValue())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	if h.store != nil {
		if err := h.record(ctx, scenario, result); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	logger.Info("run finished", "status", result.Status, "pass", result.Pass, "events", len(result.Trace))
	for _, msg := range result.Errors {
		logger.Debug("expectation failed", "error", msg)
	}
	return result, nil
}

func (h *Harness) record(ctx context.Context, scenario *Scenario, result *Result) error {
	events := make([]store.Event, len(result.Trace))
	for i, e := range result.Trace {
		events[i] = store.Event{
			Seq:     e.Seq,
			Channel: e.Channel,
			Kind:    e.Kind,
			Payload: e.ToValue(),
		}
	}
	return h.store.RecordRun(ctx, store.Run{
		ID:         result.RunID,
		Scenario:   scenario.Name,
		Recognizer: scenario.Recognizer,
		Status:     result.Status,
		Pass:       result.Pass,
		Digest:     result.Digest,
	}, events)
}

// scenarioInput builds the token stream for a scenario.
func scenarioInput(scenario *Scenario) stream.Stream[any] {
	var err error
	if scenario.FailWith != "" {
		err = errors.New(scenario.FailWith)
	}
	return testutil.FailAfter(err, scenario.Input...)
}

// run holds the state of one execution.
type run struct {
	h      *Harness
	ctx    context.Context
	clock  *testutil.DeterministicClock
	result *Result
}

func (r *run) emit(channel, kind string, value ir.Value, consumed *bool, errMsg string) {
	r.result.Trace = append(r.result.Trace, TraceEvent{
		Seq:           r.clock.Next(),
		Channel:       channel,
		Kind:          kind,
		Value:         value,
		ConsumedInput: consumed,
		Error:         errMsg,
	})
}

// fail records err as the terminal event of channel.
func (r *run) fail(channel, status string, err error) {
	r.result.Status = status
	r.result.Error = err.Error()
	r.emit(channel, KindError, nil, nil, err.Error())
}

// abort reports whether err ends the run instead of being an outcome.
func (r *run) abort(err error) bool {
	return r.ctx.Err() != nil || IsEventsExceededError(err)
}

func (r *run) quota(channel string) *EventsExceededError {
	return &EventsExceededError{RunID: r.result.RunID, Channel: channel, Limit: r.h.maxEvents}
}

func (r *run) match(m parse.Matcher[any, any], input stream.Stream[any]) error {
	out := limitEvents(m(input), r.h.maxEvents, r.quota(ChannelOutput))
	matches, err := stream.Collect(r.ctx, out)
	if err != nil && r.abort(err) {
		return err
	}

	for _, found := range matches {
		value := toTraceValue(found.Value)
		consumed := found.ConsumedInput
		r.emit(ChannelOutput, KindMatch, value, &consumed, "")
	}
	if err != nil {
		r.fail(ChannelOutput, StatusError, err)
		return nil
	}
	if len(matches) == 0 {
		r.result.Status = StatusFailed
		return nil
	}

	found := matches[0]
	r.result.Status = StatusMatched
	r.result.Value = toTraceValue(found.Value)
	r.result.ConsumedInput = found.ConsumedInput
	return r.drainSuffix(found.Suffix)
}

func (r *run) capture(c parse.Capturer[any, any], input stream.Stream[any]) error {
	out := limitEvents(c(input), r.h.maxEvents, r.quota(ChannelOutput))
	steps, err := stream.Collect(r.ctx, out)
	if err != nil && r.abort(err) {
		return err
	}

	var done *parse.Done[any, any]
	for _, step := range steps {
		switch s := step.(type) {
		case parse.Item[any, any]:
			value := toTraceValue(s.Value)
			r.result.Items = append(r.result.Items, value)
			r.emit(ChannelOutput, KindItem, value, nil, "")
		case parse.Done[any, any]:
			consumed := s.ConsumedInput
			r.emit(ChannelOutput, KindDone, nil, &consumed, "")
			done = &s
		}
	}
	if err != nil {
		r.fail(ChannelOutput, StatusError, err)
		return nil
	}
	if done == nil {
		r.result.Status = StatusFailed
		return nil
	}

	r.result.Status = StatusCaptured
	r.result.ConsumedInput = done.ConsumedInput
	return r.drainSuffix(done.Suffix)
}

// drainSuffix records every token of suffix and releases its buffer.
func (r *run) drainSuffix(suffix stream.Stream[any]) error {
	if suffix == nil {
		return nil
	}
	defer stream.Release(suffix)

	tokens, err := stream.Collect(r.ctx, limitEvents(suffix, r.h.maxEvents, r.quota(ChannelSuffix)))
	if err != nil && r.abort(err) {
		return err
	}
	for _, tok := range tokens {
		value := toTraceValue(tok)
		r.result.Suffix = append(r.result.Suffix, value)
		r.emit(ChannelSuffix, KindToken, value, nil, "")
	}
	if err != nil {
		r.fail(ChannelSuffix, StatusSuffixError, err)
	}
	return nil
}

// toTraceValue converts a token or match value for the trace. Values the
// trace model cannot hold exactly, such as fractional floats, are recorded
// as their %v text.
func toTraceValue(v any) ir.Value {
	if val, err := ir.FromGo(v); err == nil {
		return val
	}
	switch x := v.(type) {
	case []any:
		arr := make(ir.Array, len(x))
		for i, elem := range x {
			arr[i] = toTraceValue(elem)
		}
		return arr
	case map[string]any:
		obj := make(ir.Object, len(x))
		for k, elem := range x {
			obj[k] = toTraceValue(elem)
		}
		return obj
	}
	return ir.String(fmt.Sprint(v))
}
