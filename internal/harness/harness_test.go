package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamparse/internal/ir"
	"github.com/roach88/streamparse/internal/store"
	"github.com/roach88/streamparse/internal/testutil"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRun_AllTestdataScenariosPass(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)

	for _, path := range files {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".yaml"), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, s.Expect.Status, result.Status)
		})
	}
}

func TestRun_TraceIsStamped(t *testing.T) {
	s := mustParse(t, `
name: stamped
recognizer: capture-at-most-3
input: [1, 2, 3, 4]
expect: {status: captured}
`)
	result, err := Run(s)
	require.NoError(t, err)

	require.Len(t, result.Trace, 5)
	for i, e := range result.Trace {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, KindDone, result.Trace[3].Kind)
	assert.Equal(t, ChannelSuffix, result.Trace[4].Channel)
	assert.True(t, ir.Equal(ir.Int(4), result.Trace[4].Value))
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := mustParse(t, `
name: wrong
recognizer: seq-odd-even
input: [1, 2, 3]
expect:
  status: matched
  value: [1, 4]
  consumed_input: false
  suffix: []
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "value: expected [1,4], got [1,2]")
	assert.Contains(t, result.Errors[1], "suffix: expected [], got [3]")
	assert.Contains(t, result.Errors[2], "consumed_input: expected false, got true")
}

func TestRun_StatusMismatchIncludesError(t *testing.T) {
	s := mustParse(t, `
name: surprise
recognizer: any
input: []
fail_with: kaput
expect: {status: matched}
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, StatusError, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "status: expected matched, got error (kaput)", result.Errors[0])
}

func TestRun_SampleFailures(t *testing.T) {
	s := mustParse(t, `
name: samples
recognizer: integer
test: [1, 3]
input: [1]
expect: {status: matched}
samples:
  accept: [2]
  reject: [3]
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"sample: {1,3} should accept 2",
		"sample: {1,3} should reject 3",
	}, result.Errors)
}

func TestRun_DigestIgnoresRunID(t *testing.T) {
	doc := "name: d\nrecognizer: any\ninput: [1, 2]\nexpect: {status: matched}\n"

	a, err := New(WithRunIDs(testutil.NewFixedRunIDs("run-a"))).Run(context.Background(), mustParse(t, doc))
	require.NoError(t, err)
	b, err := New(WithRunIDs(testutil.NewFixedRunIDs("run-b"))).Run(context.Background(), mustParse(t, doc))
	require.NoError(t, err)

	assert.Equal(t, "run-a", a.RunID)
	assert.Equal(t, "run-b", b.RunID)
	assert.Len(t, a.Digest, 64)
	assert.Equal(t, a.Digest, b.Digest)
}

func TestRun_ScenarioRunIDWins(t *testing.T) {
	s := mustParse(t, "name: r\nrecognizer: any\ninput: [1]\nrun_id: run-pinned\nexpect: {status: matched}\n")

	result, err := New().Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "run-pinned", result.RunID)
}

func TestRun_DefaultRunIDsAreUUIDv7(t *testing.T) {
	s := mustParse(t, "name: r\nrecognizer: any\ninput: [1]\nexpect: {status: matched}\n")

	result, err := New().Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RunID, "run-"))
	assert.Len(t, result.RunID, len("run-")+36)
}

func TestRun_EventQuota(t *testing.T) {
	s := mustParse(t, "name: q\nrecognizer: capture-any\ninput: [1, 2, 3]\nexpect: {status: captured}\n")

	_, err := New(WithMaxEvents(2)).Run(context.Background(), s)
	require.Error(t, err)
	assert.True(t, IsEventsExceededError(err))

	result, err := New(WithMaxEvents(0)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRun_ContextCancelled(t *testing.T) {
	s := mustParse(t, "name: c\nrecognizer: any\ninput: [1]\nexpect: {status: matched}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(WithTimeout(time.Second)).Run(ctx, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsToStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s, err := LoadScenario("testdata/scenarios/odd_then_even.yaml")
	require.NoError(t, err)

	h := New(WithStore(st), WithRunIDs(testutil.NewFixedRunIDs("run-1")))
	result, err := h.Run(context.Background(), s)
	require.NoError(t, err)

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "odd_then_even", run.Scenario)
	assert.Equal(t, "seq-odd-even", run.Recognizer)
	assert.Equal(t, StatusMatched, run.Status)
	assert.True(t, run.Pass)
	assert.Equal(t, result.Digest, run.Digest)

	events, err := st.ReadEvents(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, len(result.Trace))
	for i, e := range events {
		assert.Equal(t, result.Trace[i].Seq, e.Seq)
		assert.Equal(t, result.Trace[i].Kind, e.Kind)
		assert.True(t, ir.Equal(result.Trace[i].ToValue(), e.Payload))
	}
}

func TestRun_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := mustParse(t, "name: logged\nrecognizer: any\ninput: [1]\nexpect: {status: failed}\n")
	_, err := New(WithLogger(logger), WithRunIDs(testutil.NewFixedRunIDs(""))).Run(context.Background(), s)
	require.NoError(t, err)

	var finished map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "run finished" {
			finished = rec
		}
	}
	require.NotNil(t, finished, "log: %s", buf.String())
	assert.Equal(t, "logged", finished["scenario"])
	assert.Equal(t, testutil.DefaultRunID, finished["run_id"])
	assert.Equal(t, StatusMatched, finished["status"])
	assert.Equal(t, false, finished["pass"])
	assert.Contains(t, buf.String(), "expectation failed")
}

func TestToTraceValue(t *testing.T) {
	assert.True(t, ir.Equal(ir.String("1.5"), toTraceValue(1.5)))
	assert.True(t, ir.Equal(ir.Array{ir.Int(1), ir.String("0.25")}, toTraceValue([]any{1, 0.25})))
	assert.True(t, ir.Equal(ir.Object{"a": ir.String("2.5")}, toTraceValue(map[string]any{"a": 2.5})))
	assert.True(t, ir.Equal(ir.Null{}, toTraceValue(nil)))
}
