// Package predicate implements IntegerTest, an immutable algebra of integer
// classifiers used to build token tests.
//
// A test is one of: an exact value, a set of values, a list of sorted
// non-overlapping inclusive ranges, all integers, no integers, a bitmask test
// (the inner test applied to v & mask), an inversion, a union or an
// intersection. Tests are built with the constructors in this package or
// normalized from convenience inputs with ToIntegerTest:
//
//	t, err := predicate.ToIntegerTest([]predicate.Range{{Min: 100, Max: 175}, {Min: 150, Max: 200}})
//	// t is the single range [100, 200]
//
//	digit := predicate.MustRanges(predicate.Range{Min: '0', Max: '9'})
//	letter := predicate.Union(
//		predicate.MustRanges(predicate.Range{Min: 'a', Max: 'z'}),
//		predicate.MustRanges(predicate.Range{Min: 'A', Max: 'Z'}),
//	)
//	word := predicate.Union(digit, letter, predicate.Exact('_'))
//
// Construction errors are reported synchronously; evaluating a test never
// fails and has no side effects.
package predicate
