// Package textrange adapts text to the parse engine.
//
// A Range is a view of a window into a source string. Tokens of a text
// stream are Ranges, so recognizers can split a token without copying and
// report where in the source a match was found.
package textrange

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/streamparse/stream"
)

// Range is a view of source[start:end]. Offsets are byte offsets.
// The zero value is an empty range over an empty source.
type Range struct {
	source     string
	start, end int
}

// New returns a Range covering all of src.
func New(src string) Range {
	return Range{source: src, end: len(src)}
}

// Normalize returns src in Unicode normalization form C.
func Normalize(src string) string {
	return norm.NFC.String(src)
}

// NewNormalized returns a Range over the NFC form of src, so that patterns
// written with composed characters match decomposed input.
func NewNormalized(src string) Range {
	return New(Normalize(src))
}

// Source returns the underlying string.
func (r Range) Source() string { return r.source }

// Start returns the offset of the first byte in the source.
func (r Range) Start() int { return r.start }

// End returns the offset just past the last byte in the source.
func (r Range) End() int { return r.end }

// Len returns the length of the range in bytes.
func (r Range) Len() int { return r.end - r.start }

// String returns the text the range covers.
func (r Range) String() string { return r.source[r.start:r.end] }

// Slice returns a sub-range with offsets relative to r.
//
// Negative offsets count back from the end of r. Offsets are clamped to r,
// and an end before start yields an empty range at start. When the result
// covers all of r, r itself is returned.
func (r Range) Slice(start, end int) Range {
	n := r.Len()
	if start < 0 {
		start = max(0, n+start)
	} else {
		start = min(n, start)
	}
	if end < 0 {
		end = max(0, n+end)
	} else {
		end = min(n, end)
	}
	if end < start {
		end = start
	}
	if start == 0 && end == n {
		return r
	}
	return Range{source: r.source, start: r.start + start, end: r.start + end}
}

// SliceFrom returns the sub-range from start to the end of r.
func (r Range) SliceFrom(start int) Range {
	return r.Slice(start, r.Len())
}

// ToRanges maps a stream of strings to whole-string Ranges.
func ToRanges(s stream.Stream[string]) stream.Stream[Range] {
	return stream.Map(s, New)
}

// FromRanges maps a stream of Ranges back to the text they cover.
func FromRanges(s stream.Stream[Range]) stream.Stream[string] {
	return stream.Map(s, Range.String)
}

// Text drains s and concatenates the text of its ranges.
func Text(ctx context.Context, s stream.Stream[Range]) (string, error) {
	ranges, err := stream.Collect(ctx, s)
	if err != nil {
		return "", err
	}
	var n int
	for _, r := range ranges {
		n += r.Len()
	}
	buf := make([]byte, 0, n)
	for _, r := range ranges {
		buf = append(buf, r.String()...)
	}
	return string(buf), nil
}
