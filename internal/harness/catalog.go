package harness

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/streamparse/parse"
	"github.com/roach88/streamparse/predicate"
)

// entry builds one named recognizer. Exactly one of matcher or capturer
// is set. test is nil unless the scenario supplies one.
type entry struct {
	description string
	needsTest   bool
	matcher     func(test predicate.IntegerTest) parse.Matcher[any, any]
	capturer    func(test predicate.IntegerTest) parse.Capturer[any, any]
}

// ErrOddValue is the error halve-even fails with.
var ErrOddValue = errors.New("value is not even")

var catalog = map[string]entry{
	"any": {
		description: "matches any single token",
		matcher:     func(predicate.IntegerTest) parse.Matcher[any, any] { return anyToken() },
	},
	"odd": {
		description: "matches an odd integer",
		matcher:     func(predicate.IntegerTest) parse.Matcher[any, any] { return parse.MatchIf(isOdd) },
	},
	"even": {
		description: "matches an even integer",
		matcher:     func(predicate.IntegerTest) parse.Matcher[any, any] { return parse.MatchIf(isEven) },
	},
	"string": {
		description: "matches a string token",
		matcher:     func(predicate.IntegerTest) parse.Matcher[any, any] { return parse.MatchIf(isString) },
	},
	"bool": {
		description: "matches a boolean token",
		matcher:     func(predicate.IntegerTest) parse.Matcher[any, any] { return parse.MatchIf(isBool) },
	},
	"number": {
		description: "matches an integer or float token",
		matcher:     func(predicate.IntegerTest) parse.Matcher[any, any] { return parse.MatchIf(isNumber) },
	},
	"integer": {
		description: "matches an integer accepted by test",
		needsTest:   true,
		matcher:     integerToken,
	},
	"first-string-or-bool": {
		description: "first match of string, then bool",
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.FirstMatch(parse.MatchIf(isString), parse.MatchIf(isBool))
		},
	},
	"first-bool-or-number": {
		description: "first match of bool, then number",
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.FirstMatch(parse.MatchIf(isBool), parse.MatchIf(isNumber))
		},
	},
	"optional-integer": {
		description: "an integer accepted by test, or null without consuming",
		needsTest:   true,
		matcher: func(test predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Map(parse.Optional(integerToken(test)), func(v *any) any {
				if v == nil {
					return nil
				}
				return *v
			})
		},
	},
	"lookahead-any": {
		description: "peeks at any token without consuming it",
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Lookahead(anyToken())
		},
	},
	"not-integer": {
		description: "matches true when the next token is not an integer accepted by test",
		needsTest:   true,
		matcher: func(test predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Any(parse.NegativeLookahead(integerToken(test)))
		},
	},
	"constant": {
		description: `matches "constant" without reading input`,
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Constant[any, any]("constant")
		},
	},
	"pair-any": {
		description: "two tokens as {first, second}",
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Any(parse.Pair(anyToken(), anyToken()))
		},
	},
	"triple-any": {
		description: "three tokens as {first, second, third}",
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Any(parse.Triple(anyToken(), anyToken(), anyToken()))
		},
	},
	"seq-odd-even": {
		description: "an odd integer followed by an even one",
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Any(parse.Seq(parse.MatchIf(isOdd), parse.MatchIf(isEven)))
		},
	},
	"collect-integers": {
		description: "every leading integer accepted by test, as a list",
		needsTest:   true,
		matcher: func(test predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.Any(parse.Collect(parse.Capture(integerToken(test), 0, parse.Unbounded)))
		},
	},
	"sum-integers": {
		description: "the sum of every leading integer accepted by test",
		needsTest:   true,
		matcher: func(test predicate.IntegerTest) parse.Matcher[any, any] {
			c := parse.Capture(integerToken(test), 0, parse.Unbounded)
			return parse.Any(parse.Reduce(c, func() int64 { return 0 }, func(acc int64, v any) int64 {
				n, _ := asInt(v)
				return acc + n
			}))
		},
	},
	"halve-even": {
		description: "any token divided by two, failing on odd values",
		matcher: func(predicate.IntegerTest) parse.Matcher[any, any] {
			return parse.TryMap(anyToken(), func(v any) (any, error) {
				n, ok := asInt(v)
				if !ok || n%2 != 0 {
					return nil, fmt.Errorf("%w: %v", ErrOddValue, v)
				}
				return n / 2, nil
			})
		},
	},
	"capture-any": {
		description: "captures every token",
		capturer: func(predicate.IntegerTest) parse.Capturer[any, any] {
			return parse.Capture(anyToken(), 0, parse.Unbounded)
		},
	},
	"capture-at-least-3": {
		description: "captures every token, requiring three",
		capturer: func(predicate.IntegerTest) parse.Capturer[any, any] {
			return parse.Capture(anyToken(), 3, parse.Unbounded)
		},
	},
	"capture-at-most-3": {
		description: "captures up to three tokens",
		capturer: func(predicate.IntegerTest) parse.Capturer[any, any] {
			return parse.Capture(anyToken(), 0, 3)
		},
	},
	"capture-odd-doubled": {
		description: "captures at least one odd integer, doubling each",
		capturer: func(predicate.IntegerTest) parse.Capturer[any, any] {
			return parse.MapCaptures(parse.Capture(parse.MatchIf(isOdd), 1, parse.Unbounded), func(v any) any {
				n, _ := asInt(v)
				return n * 2
			})
		},
	},
	"capture-integers": {
		description: "captures raw input while tokens are integers accepted by test",
		needsTest:   true,
		capturer: func(test predicate.IntegerTest) parse.Capturer[any, any] {
			return parse.CaptureInput(integerTest(test), 0, parse.Unbounded)
		},
	},
	"capture-all-input": {
		description: "captures the whole input",
		capturer: func(predicate.IntegerTest) parse.Capturer[any, any] {
			return parse.CaptureAllInput[any]()
		},
	},
}

func lookupRecognizer(name string) (entry, bool) {
	e, ok := catalog[name]
	return e, ok
}

// RecognizerInfo describes a catalog entry.
type RecognizerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capturer    bool   `json:"capturer"`
	NeedsTest   bool   `json:"needs_test"`
}

// Recognizers lists the catalog sorted by name.
func Recognizers() []RecognizerInfo {
	infos := make([]RecognizerInfo, 0, len(catalog))
	for name, e := range catalog {
		infos = append(infos, RecognizerInfo{
			Name:        name,
			Description: e.description,
			Capturer:    e.capturer != nil,
			NeedsTest:   e.needsTest,
		})
	}
	slices.SortFunc(infos, func(a, b RecognizerInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

func anyToken() parse.Matcher[any, any] {
	return parse.MatchAny[any]()
}

func integerToken(test predicate.IntegerTest) parse.Matcher[any, any] {
	return parse.MatchIf(integerTest(test))
}

func integerTest(test predicate.IntegerTest) func(any) bool {
	return func(v any) bool {
		n, ok := asInt(v)
		return ok && test.Test(n)
	}
}

// asInt reports the integer value of a decoded YAML token. Booleans and
// fractional floats are not integers.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func isOdd(v any) bool {
	n, ok := asInt(v)
	return ok && n%2 != 0
}

func isEven(v any) bool {
	n, ok := asInt(v)
	return ok && n%2 == 0
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, uint64, float64:
		return true
	}
	return false
}
