package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/streamparse/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a test run with minimal required fields.
func createTestRun(id, scenario string) Run {
	return Run{
		ID:         id,
		Scenario:   scenario,
		Recognizer: "any",
		Status:     "matched",
		Pass:       true,
		Digest:     "test-digest",
	}
}

// createTestEvents returns a match followed by one suffix token.
func createTestEvents() []Event {
	return []Event{
		{Seq: 1, Channel: "output", Kind: "match", Payload: ir.Object{"value": ir.Int(1), "consumed_input": ir.Bool(true)}},
		{Seq: 2, Channel: "suffix", Kind: "token", Payload: ir.Int(2)},
	}
}
