package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamparse/internal/store"
)

// recordedDB runs passingScenario once into a fresh database and returns
// its path and the run ID.
func recordedDB(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	writeScenario(t, dir, "pass_one", passingScenario)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, err := execute(t, "test", dir, "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	return dbPath, runs[0].ID
}

func TestTraceCommandRequiresDB(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestTraceCommandListRuns(t *testing.T) {
	dbPath, runID := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "[1] "+runID+" pass_one matched (pass)\n", out)

	out, err = execute(t, "trace", "--db", dbPath, "--scenario", "other")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestTraceCommandListRunsJSON(t *testing.T) {
	dbPath, runID := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	runs := decodeResponse(t, out).Data.([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.Equal(t, runID, run["id"])
	assert.Equal(t, "seq-odd-even", run["recognizer"])
	assert.Len(t, run["digest"], 64)
}

func TestTraceCommandShowRun(t *testing.T) {
	dbPath, runID := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath, "--run", runID, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for Run: "+runID)
	assert.Contains(t, out, "Scenario: pass_one (seq-odd-even)")
	assert.Contains(t, out, "Status: matched (pass)")
	assert.Contains(t, out, `[1] output match {"channel":"output","consumed_input":true,"kind":"match","seq":1,"value":[1,2]}`)
	assert.Contains(t, out, `[2] suffix token {"channel":"suffix","kind":"token","seq":2,"value":3}`)
	assert.Contains(t, out, "Total Events:  2")
}

func TestTraceCommandChannelFilterJSON(t *testing.T) {
	dbPath, runID := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath, "--run", runID, "--channel", "suffix", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, runID, resp.RunID)
	data := resp.Data.(map[string]any)
	events := data["events"].([]any)
	require.Len(t, events, 1)
	event := events[0].(map[string]any)
	assert.Equal(t, "token", event["kind"])
	assert.Equal(t, float64(3), event["payload"].(map[string]any)["value"])

	stats := data["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["suffix_events"])
	assert.Equal(t, float64(0), stats["output_events"])
}

func TestTraceCommandErrors(t *testing.T) {
	dbPath, _ := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath, "--run", "run-missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_FOUND]: run not found: run-missing")

	_, err = execute(t, "trace", "--db", dbPath, "--channel", "input")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid channel "input"`)
}
