package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// writeScenario writes a scenario file named name.yaml into dir.
func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const passingScenario = `name: pass_one
recognizer: seq-odd-even
input: [1, 2, 3]
expect:
  status: matched
  value: [1, 2]
  suffix: [3]
`

const failingScenario = `name: fail_one
recognizer: odd
input: [2]
expect:
  status: matched
`
