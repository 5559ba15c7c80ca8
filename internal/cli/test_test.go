package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamparse/internal/store"
)

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	out, err = execute(t, "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "ok", decodeResponse(t, out).Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, "test", harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ odd_then_even (matched)")
	assert.Contains(t, out, "✓ capture_any (captured)")
	assert.Contains(t, out, "0 failed")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass_one", passingScenario)
	writeScenario(t, dir, "fail_one", failingScenario)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ fail_one")
	assert.Contains(t, out, "status: expected matched, got failed")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass_one", passingScenario)
	writeScenario(t, dir, "fail_one", failingScenario)

	out, err := execute(t, "test", dir, "--filter", "pass_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, err = execute(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken", "name: broken\nrecognizer: nope\ninput: []\nexpect: {status: failed}\n")

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "unknown recognizer: nope")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass_one", passingScenario)
	writeScenario(t, dir, "fail_one", failingScenario)

	out, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["total"])
	scenarios := data["scenarios"].([]any)
	require.Len(t, scenarios, 2)
	// Files run in lexical order.
	first := scenarios[0].(map[string]any)
	assert.Equal(t, "fail_one", first["name"])
	assert.Equal(t, false, first["pass"])
	assert.Equal(t, "failed", first["status"])
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "pass_one", passingScenario)

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err, out)

	golden, err := os.ReadFile(goldenFilePath(path))
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"pass_one","status":"matched","trace":[{"channel":"output","consumed_input":true,"kind":"match","seq":1,"value":[1,2]},{"channel":"suffix","kind":"token","seq":2,"value":3}]}`+"\n",
		string(golden))

	_, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenFilePath(path), []byte("{}\n"), 0644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass_one", passingScenario)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, err := execute(t, "test", dir, "--db", dbPath)
	require.NoError(t, err)
	_, err = execute(t, "test", dir, "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), "pass_one")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
	assert.Equal(t, runs[0].Digest, runs[1].Digest)
	assert.Less(t, runs[0].Seq, runs[1].Seq)
}

func TestTestCommandMaxEvents(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "many", "name: many\nrecognizer: capture-any\ninput: [1, 2, 3]\nexpect: {status: captured}\n")

	out, err := execute(t, "test", dir, "--max-events", "1")
	require.Error(t, err)
	assert.Contains(t, out, "execution failed")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "golden", "c.golden"), goldenFilePath(filepath.Join("a", "b", "c.yaml")))
}
