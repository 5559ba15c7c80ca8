package predicate

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// ToIntegerTest normalizes a convenience input into an IntegerTest.
//
// Accepted inputs:
//   - an IntegerTest, returned unchanged
//   - true (AllIntegers) or false (NoIntegers)
//   - any Go integer, or an integral float64: an exact test
//   - a Range or []Range: normalized ranges
//   - []int64, []int or iter.Seq[int64]: a set
//   - map[string]any with "min" and "max" keys: a single range
//   - []any whose elements are all numbers (a set) or all range maps
//     (ranges); an empty list is NoIntegers
//
// The []any and map forms are what YAML and JSON decoders produce.
func ToIntegerTest(x any) (IntegerTest, error) {
	switch v := x.(type) {
	case IntegerTest:
		return v, nil
	case bool:
		if v {
			return AllIntegers, nil
		}
		return NoIntegers, nil
	case Range:
		return NewRanges(v)
	case []Range:
		return NewRanges(v...)
	case []int64:
		return Set(v...), nil
	case []int:
		values := make([]int64, len(v))
		for i, n := range v {
			values[i] = int64(n)
		}
		return Set(values...), nil
	case iter.Seq[int64]:
		return Set(slices.Collect(v)...), nil
	case map[string]any:
		r, err := rangeFromMap(v)
		if err != nil {
			return nil, err
		}
		return NewRanges(r)
	case []any:
		return fromList(v)
	}

	if n, ok := toInt64(x); ok {
		return Exact(n), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, x)
}

// TestInteger normalizes x with ToIntegerTest and applies it to v.
func TestInteger(v int64, x any) (bool, error) {
	t, err := ToIntegerTest(x)
	if err != nil {
		return false, err
	}
	return t.Test(v), nil
}

func fromList(items []any) (IntegerTest, error) {
	if len(items) == 0 {
		return NoIntegers, nil
	}

	if _, isMap := items[0].(map[string]any); isMap {
		ranges := make([]Range, len(items))
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: mixed list element %d (%T)", ErrUnsupported, i, item)
			}
			r, err := rangeFromMap(m)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			ranges[i] = r
		}
		return NewRanges(ranges...)
	}

	values := make([]int64, len(items))
	for i, item := range items {
		n, ok := toInt64(item)
		if !ok {
			return nil, fmt.Errorf("%w: list element %d (%T)", ErrUnsupported, i, item)
		}
		values[i] = n
	}
	return Set(values...), nil
}

func rangeFromMap(m map[string]any) (Range, error) {
	lo, okMin := toInt64(m["min"])
	hi, okMax := toInt64(m["max"])
	if !okMin || !okMax {
		return Range{}, fmt.Errorf("%w: range needs integer min and max", ErrUnsupported)
	}
	return Range{Min: lo, Max: hi}, nil
}

func toInt64(x any) (int64, bool) {
	switch n := x.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
