package textrange

import (
	"regexp"

	"github.com/roach88/streamparse/parse"
)

// MatchRegexp returns a recognizer matching re at the start of the first
// token. The value is the matched prefix. Any unmatched tail of the token
// leads the suffix, followed by the remaining tokens. An empty match is
// zero-width.
//
// re keeps its own matching semantics, so a regexp compiled with
// CompilePOSIX picks the longest prefix. A token without a match at its
// start is searched to its end; MustMatchRegexp avoids that for patterns
// given as text.
//
// The pattern only sees the token's own text: assertions about text before
// the token, such as \b at its start, do not see the preceding source.
func MatchRegexp(re *regexp.Regexp) parse.Matcher[Range, Range] {
	return matchPrefix(func(s string) []int {
		loc := re.FindStringIndex(s)
		if loc == nil || loc[0] != 0 {
			return nil
		}
		return loc
	})
}

// MustMatchRegexp compiles expr, anchored at the token start, and returns
// a recognizer like MatchRegexp. It panics if expr does not compile.
func MustMatchRegexp(expr string) parse.Matcher[Range, Range] {
	regexp.MustCompile(expr)
	anchored := regexp.MustCompile(`^(?:` + expr + `)`)
	return matchPrefix(anchored.FindStringIndex)
}

// matchPrefix recognizes the prefix find locates at offset zero.
func matchPrefix(find func(string) []int) parse.Matcher[Range, Range] {
	return parse.MatchSplit(func(token Range) (parse.Split[Range, Range], bool, error) {
		loc := find(token.String())
		if loc == nil {
			return parse.Split[Range, Range]{}, false, nil
		}
		n := loc[1]
		split := parse.Split[Range, Range]{
			Value:         token.Slice(0, n),
			ConsumedInput: n > 0,
		}
		if n < token.Len() {
			split.Rest = token.SliceFrom(n)
			split.HasRest = true
		}
		return split, true, nil
	})
}
