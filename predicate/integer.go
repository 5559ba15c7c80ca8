package predicate

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Kind identifies the variant of an IntegerTest.
type Kind string

const (
	KindExact        Kind = "exact"
	KindSet          Kind = "set"
	KindRanges       Kind = "ranges"
	KindAll          Kind = "all"
	KindNone         Kind = "none"
	KindBitAnd       Kind = "band"
	KindInverted     Kind = "inverted"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
)

// IntegerTest classifies integers. Implementations are immutable values;
// the set of variants is closed.
type IntegerTest interface {
	Kind() Kind
	Test(v int64) bool
	String() string

	sealed()
}

// Range is an inclusive integer interval.
type Range struct {
	Min int64 `json:"min" yaml:"min"`
	Max int64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v int64) bool {
	return r.Min <= v && v <= r.Max
}

var (
	// AllIntegers matches every integer.
	AllIntegers IntegerTest = AllTest{}
	// NoIntegers matches nothing.
	NoIntegers IntegerTest = NoneTest{}
)

// ExactTest matches a single value.
type ExactTest struct {
	Value int64
}

// SetTest matches membership in a fixed set.
type SetTest struct {
	set map[int64]struct{}
}

// RangesTest matches membership in a sorted list of non-overlapping ranges.
type RangesTest struct {
	ranges []Range
}

// AllTest matches every integer.
type AllTest struct{}

// NoneTest matches no integer.
type NoneTest struct{}

// BitAndTest applies Inner to v & Mask.
type BitAndTest struct {
	Mask  int64
	Inner IntegerTest
}

// InvertedTest matches what Inner rejects.
type InvertedTest struct {
	Inner IntegerTest
}

// UnionTest matches when any member matches.
type UnionTest struct {
	tests []IntegerTest
}

// IntersectionTest matches when every member matches.
type IntersectionTest struct {
	tests []IntegerTest
}

// Exact returns a test matching only v.
func Exact(v int64) IntegerTest {
	return ExactTest{Value: v}
}

// Set returns a test matching any of values. An empty set is NoIntegers.
func Set(values ...int64) IntegerTest {
	if len(values) == 0 {
		return NoIntegers
	}
	set := make(map[int64]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return SetTest{set: set}
}

// NewRanges validates, sorts and merges ranges. Overlapping and touching
// ranges are joined. Any range with Min > Max fails with a *RangeError.
// No ranges yields NoIntegers.
func NewRanges(ranges ...Range) (IntegerTest, error) {
	for i, r := range ranges {
		// A valid range has Min <= Max.
		if !(r.Min <= r.Max) {
			return nil, &RangeError{Index: i, Min: r.Min, Max: r.Max}
		}
	}
	if len(ranges) == 0 {
		return NoIntegers, nil
	}

	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int {
		switch {
		case a.Min < b.Min:
			return -1
		case a.Min > b.Min:
			return 1
		}
		return 0
	})

	merged := make([]Range, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Min <= cur.Max || (cur.Max < math.MaxInt64 && next.Min == cur.Max+1) {
			cur.Max = max(cur.Max, next.Max)
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	merged = append(merged, cur)

	return RangesTest{ranges: merged}, nil
}

// MustRanges is like NewRanges but panics on invalid input.
func MustRanges(ranges ...Range) IntegerTest {
	t, err := NewRanges(ranges...)
	if err != nil {
		panic(err)
	}
	return t
}

// MaskedAnd returns a test applying inner to v & mask.
func MaskedAnd(mask int64, inner IntegerTest) IntegerTest {
	return BitAndTest{Mask: mask, Inner: inner}
}

// Invert returns the logical complement of t.
//
// All and None swap, a double inversion cancels, and unions and
// intersections are inverted member-wise (De Morgan). Anything else is
// wrapped in an InvertedTest.
func Invert(t IntegerTest) IntegerTest {
	switch v := t.(type) {
	case AllTest:
		return NoIntegers
	case NoneTest:
		return AllIntegers
	case InvertedTest:
		return v.Inner
	case UnionTest:
		return Intersection(invertAll(v.tests)...)
	case IntersectionTest:
		return Union(invertAll(v.tests)...)
	}
	return InvertedTest{Inner: t}
}

func invertAll(ts []IntegerTest) []IntegerTest {
	out := make([]IntegerTest, len(ts))
	for i, t := range ts {
		out[i] = Invert(t)
	}
	return out
}

// Union returns a test matching when any of ts matches.
//
// With no arguments it is NoIntegers. AllIntegers absorbs the union,
// NoIntegers members are dropped, nested unions are flattened and a single
// remaining member is returned as is.
func Union(ts ...IntegerTest) IntegerTest {
	out := make([]IntegerTest, 0, len(ts))
	for _, t := range ts {
		switch v := t.(type) {
		case nil, NoneTest:
			continue
		case AllTest:
			return AllIntegers
		case UnionTest:
			out = append(out, v.tests...)
		default:
			out = append(out, t)
		}
	}
	switch len(out) {
	case 0:
		return NoIntegers
	case 1:
		return out[0]
	}
	return UnionTest{tests: out}
}

// Intersection returns a test matching when every one of ts matches.
//
// With no arguments it is AllIntegers. NoIntegers absorbs the intersection,
// AllIntegers members are dropped, nested intersections are flattened and a
// single remaining member is returned as is.
func Intersection(ts ...IntegerTest) IntegerTest {
	out := make([]IntegerTest, 0, len(ts))
	for _, t := range ts {
		switch v := t.(type) {
		case nil, AllTest:
			continue
		case NoneTest:
			return NoIntegers
		case IntersectionTest:
			out = append(out, v.tests...)
		default:
			out = append(out, t)
		}
	}
	switch len(out) {
	case 0:
		return AllIntegers
	case 1:
		return out[0]
	}
	return IntersectionTest{tests: out}
}

func (ExactTest) Kind() Kind        { return KindExact }
func (SetTest) Kind() Kind          { return KindSet }
func (RangesTest) Kind() Kind       { return KindRanges }
func (AllTest) Kind() Kind          { return KindAll }
func (NoneTest) Kind() Kind         { return KindNone }
func (BitAndTest) Kind() Kind       { return KindBitAnd }
func (InvertedTest) Kind() Kind     { return KindInverted }
func (UnionTest) Kind() Kind        { return KindUnion }
func (IntersectionTest) Kind() Kind { return KindIntersection }

func (t ExactTest) Test(v int64) bool { return v == t.Value }

func (t SetTest) Test(v int64) bool {
	_, ok := t.set[v]
	return ok
}

// Test binary-searches the sorted ranges.
func (t RangesTest) Test(v int64) bool {
	lo, hi := 0, len(t.ranges)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		r := t.ranges[mid]
		switch {
		case v < r.Min:
			hi = mid - 1
		case v > r.Max:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}

func (AllTest) Test(int64) bool  { return true }
func (NoneTest) Test(int64) bool { return false }

func (t BitAndTest) Test(v int64) bool { return t.Inner.Test(v & t.Mask) }

func (t InvertedTest) Test(v int64) bool { return !t.Inner.Test(v) }

func (t UnionTest) Test(v int64) bool {
	for _, m := range t.tests {
		if m.Test(v) {
			return true
		}
	}
	return false
}

func (t IntersectionTest) Test(v int64) bool {
	for _, m := range t.tests {
		if !m.Test(v) {
			return false
		}
	}
	return true
}

// Values returns the set members in ascending order.
func (t SetTest) Values() []int64 {
	return slices.Sorted(maps.Keys(t.set))
}

// Ranges returns a copy of the normalized ranges.
func (t RangesTest) Ranges() []Range {
	return slices.Clone(t.ranges)
}

// Tests returns a copy of the union members.
func (t UnionTest) Tests() []IntegerTest {
	return slices.Clone(t.tests)
}

// Tests returns a copy of the intersection members.
func (t IntersectionTest) Tests() []IntegerTest {
	return slices.Clone(t.tests)
}

func (t ExactTest) String() string { return fmt.Sprintf("%d", t.Value) }

func (t SetTest) String() string {
	parts := make([]string, 0, len(t.set))
	for _, v := range t.Values() {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (t RangesTest) String() string {
	parts := make([]string, len(t.ranges))
	for i, r := range t.ranges {
		parts[i] = fmt.Sprintf("[%d,%d]", r.Min, r.Max)
	}
	return strings.Join(parts, "|")
}

func (AllTest) String() string  { return "all" }
func (NoneTest) String() string { return "none" }

func (t BitAndTest) String() string { return fmt.Sprintf("(v&%#x in %s)", t.Mask, t.Inner) }

func (t InvertedTest) String() string { return "!" + t.Inner.String() }

func (t UnionTest) String() string { return joinTests("union", t.tests) }

func (t IntersectionTest) String() string { return joinTests("intersection", t.tests) }

func joinTests(op string, ts []IntegerTest) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

func (ExactTest) sealed()        {}
func (SetTest) sealed()          {}
func (RangesTest) sealed()       {}
func (AllTest) sealed()          {}
func (NoneTest) sealed()         {}
func (BitAndTest) sealed()       {}
func (InvertedTest) sealed()     {}
func (UnionTest) sealed()        {}
func (IntersectionTest) sealed() {}
