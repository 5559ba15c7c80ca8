package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "set",
			args: []string{"--test", "[1, 3, 5]", "1", "2", "3"},
			want: []string{"test: {1,3,5} (set)", "1\taccept", "2\treject", "3\taccept"},
		},
		{
			name: "range with literals",
			args: []string{"--test", "{min: 10, max: 20}", "9", "0xa", "0b10100", "1_000"},
			want: []string{"test: [10,20] (ranges)", "9\treject", "10\taccept", "20\taccept", "1000\treject"},
		},
		{
			name: "all",
			args: []string{"--test", "true", "--", "-7"},
			want: []string{"test: all (all)", "-7\taccept"},
		},
		{
			name: "exact",
			args: []string{"--test", "42", "42", "43"},
			want: []string{"test: 42 (exact)", "42\taccept", "43\treject"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"classify"}, tt.args...)...)
			require.NoError(t, err)
			for _, line := range tt.want {
				assert.Contains(t, out, line+"\n")
			}
		})
	}
}

func TestClassifyCommandJSON(t *testing.T) {
	out, err := execute(t, "classify", "--test", "[{min: 0, max: 9}, {min: 100, max: 199}]", "150", "50", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "[0,9]|[100,199]", data["test"])
	assert.Equal(t, "ranges", data["kind"])
	assert.Equal(t, []any{
		map[string]any{"value": float64(150), "accept": true},
		map[string]any{"value": float64(50), "accept": false},
	}, data["results"])
}

func TestClassifyCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"missing test", []string{"1"}, `required flag(s) "test" not set`},
		{"no values", []string{"--test", "1"}, "requires at least 1 arg"},
		{"bad yaml", []string{"--test", "[1,", "1"}, "invalid test"},
		{"unsupported test", []string{"--test", "hello", "1"}, "invalid test"},
		{"empty test", []string{"--test", "", "1"}, "invalid test"},
		{"bad value", []string{"--test", "1", "x"}, "invalid value"},
		{"inverted range", []string{"--test", "{min: 5, max: 1}", "1"}, "invalid range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"classify"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseIntegerTest(t *testing.T) {
	test, err := parseIntegerTest("[2, 4]")
	require.NoError(t, err)
	assert.True(t, test.Test(4))
	assert.False(t, test.Test(3))
}
