package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"odd_then_even", "capture_integers_input", "suffix_carries_error"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestSnapshot_Bytes(t *testing.T) {
	result := NewResult("run-x", "snap")
	result.Status = StatusFailed

	data, err := Snapshot("snap", result).Bytes()
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"snap","status":"failed","trace":[]}`+"\n", string(data))
}

func TestSnapshot_StableAcrossRuns(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/capture_any.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first).Bytes()
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second).Bytes()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
