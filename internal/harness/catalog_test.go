package harness

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizers_Sorted(t *testing.T) {
	infos := Recognizers()
	require.Len(t, infos, len(catalog))
	assert.True(t, slices.IsSortedFunc(infos, func(a, b RecognizerInfo) int {
		return strings.Compare(a.Name, b.Name)
	}))

	for _, info := range infos {
		assert.NotEmpty(t, info.Description, info.Name)
	}
}

func TestCatalog_OneBuilderPerEntry(t *testing.T) {
	for name, e := range catalog {
		assert.True(t, (e.matcher == nil) != (e.capturer == nil), "%s must set exactly one builder", name)
	}
}

func TestRecognizers_Flags(t *testing.T) {
	byName := make(map[string]RecognizerInfo)
	for _, info := range Recognizers() {
		byName[info.Name] = info
	}

	assert.True(t, byName["capture-any"].Capturer)
	assert.False(t, byName["capture-any"].NeedsTest)
	assert.True(t, byName["capture-integers"].NeedsTest)
	assert.False(t, byName["integer"].Capturer)
	assert.True(t, byName["integer"].NeedsTest)
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int", 7, 7, true},
		{"int64", int64(-3), -3, true},
		{"uint64", uint64(9), 9, true},
		{"uint64 overflow", uint64(math.MaxUint64), 0, false},
		{"integral float", 4.0, 4, true},
		{"fractional float", 4.5, 0, false},
		{"huge float", 1e19, 0, false},
		{"bool", true, 0, false},
		{"string", "1", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenPredicates(t *testing.T) {
	assert.True(t, isOdd(3))
	assert.False(t, isOdd(4))
	assert.False(t, isOdd("3"))
	assert.True(t, isEven(0))
	assert.True(t, isEven(-2.0))
	assert.True(t, isNumber(1.5))
	assert.False(t, isNumber(true))
	assert.True(t, isString(""))
	assert.True(t, isBool(false))
}
