package parse

import (
	"github.com/roach88/streamparse/stream"
)

// attempt subscribes to one match attempt on behalf of out.
//
// onMatch receives the first Match; later events of that attempt are
// ignored, including errors, which then belong to the suffix. A completion
// without a Match calls onFail. An error before a match fails out. Closing
// out cancels the attempt.
//
// The observing sink is registered before subscribing because recognizers
// deliver synchronously and onMatch may start further attempts.
func attempt[In, Out, R any](
	out *stream.Sink[R],
	s stream.Stream[Match[In, Out]],
	onMatch func(Match[In, Out]),
	onFail func(),
) {
	sink := observe(out, onMatch, onFail)
	out.OnClose(sink.Cancel)
	s.Subscribe(sink)
}

// observe builds the sink behind attempt without tying it to out.
func observe[In, Out, R any](
	out *stream.Sink[R],
	onMatch func(Match[In, Out]),
	onFail func(),
) *stream.Sink[Match[In, Out]] {
	matched := false
	return stream.NewSink(stream.Observer[Match[In, Out]]{
		Next: func(m Match[In, Out]) {
			if matched {
				return
			}
			matched = true
			onMatch(m)
		},
		Error: func(err error) {
			if !matched {
				out.Error(err)
			}
		},
		Complete: func() {
			if !matched {
				onFail()
			}
		},
	})
}

func emit[In, Out any](out *stream.Sink[Match[In, Out]], m Match[In, Out]) {
	out.Next(m)
	out.Complete()
}

// Seq runs ms in order, each on the previous suffix, and collects their
// values. It fails as soon as one of them fails. Seq with no matchers is a
// zero-width match of an empty slice.
func Seq[In, Out any](ms ...Matcher[In, Out]) Matcher[In, []Out] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, []Out]] {
		return stream.Func[Match[In, []Out]](func(out *stream.Sink[Match[In, []Out]]) {
			values := make([]Out, 0, len(ms))
			consumed := false

			var step func(i int, in stream.Stream[In])
			step = func(i int, in stream.Stream[In]) {
				if i == len(ms) {
					emit(out, Match[In, []Out]{Value: values, ConsumedInput: consumed, Suffix: in})
					return
				}
				attempt(out, ms[i](in), func(m Match[In, Out]) {
					values = append(values, m.Value)
					consumed = consumed || m.ConsumedInput
					step(i+1, m.Suffix)
				}, out.Complete)
			}
			step(0, input)
		})
	}
}

// Any erases the value type of m.
func Any[In, Out any](m Matcher[In, Out]) Matcher[In, any] {
	return Map(m, func(v Out) any { return v })
}

// PairOf holds the values of a two-step sequence.
type PairOf[A, B any] struct {
	First  A
	Second B
}

// TripleOf holds the values of a three-step sequence.
type TripleOf[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Pair sequences two matchers of different value types.
func Pair[In, A, B any](a Matcher[In, A], b Matcher[In, B]) Matcher[In, PairOf[A, B]] {
	return Map(Seq(Any(a), Any(b)), func(vs []any) PairOf[A, B] {
		first, _ := vs[0].(A)
		second, _ := vs[1].(B)
		return PairOf[A, B]{First: first, Second: second}
	})
}

// Triple sequences three matchers of different value types.
func Triple[In, A, B, C any](a Matcher[In, A], b Matcher[In, B], c Matcher[In, C]) Matcher[In, TripleOf[A, B, C]] {
	return Map(Seq(Any(a), Any(b), Any(c)), func(vs []any) TripleOf[A, B, C] {
		first, _ := vs[0].(A)
		second, _ := vs[1].(B)
		third, _ := vs[2].(C)
		return TripleOf[A, B, C]{First: first, Second: second, Third: third}
	})
}

// FirstMatch tries ms in order against the same input and emits the first
// match. Each alternative subscribes to the input independently. An error
// from any alternative aborts the whole attempt.
func FirstMatch[In, Out any](ms ...Matcher[In, Out]) Matcher[In, Out] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, Out]] {
		return stream.Func[Match[In, Out]](func(out *stream.Sink[Match[In, Out]]) {
			in := stream.Pin(input)
			out.OnClose(func() { stream.Release(in) })

			var try func(i int)
			try = func(i int) {
				if i == len(ms) {
					out.Complete()
					return
				}
				attempt(out, ms[i](in), func(m Match[In, Out]) {
					m.Suffix = stream.Settle(in, m.Suffix)
					emit(out, m)
				}, func() { try(i + 1) })
			}
			try(0)
		})
	}
}

// Lookahead matches when m matches, without consuming anything: the suffix
// is the original input.
func Lookahead[In, Out any](m Matcher[In, Out]) Matcher[In, Out] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, Out]] {
		return stream.Func[Match[In, Out]](func(out *stream.Sink[Match[In, Out]]) {
			in := stream.Pin(input)
			out.OnClose(func() { stream.Release(in) })

			attempt(out, m(in), func(found Match[In, Out]) {
				suffix := stream.Settle(in, in)
				stream.Release(found.Suffix)
				emit(out, Match[In, Out]{Value: found.Value, Suffix: suffix})
			}, out.Complete)
		})
	}
}

// NegativeLookahead matches, with value true and without consuming, when m
// does not match.
func NegativeLookahead[In, Out any](m Matcher[In, Out]) Matcher[In, bool] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, bool]] {
		return stream.Func[Match[In, bool]](func(out *stream.Sink[Match[In, bool]]) {
			in := stream.Pin(input)
			out.OnClose(func() { stream.Release(in) })

			attempt(out, m(in), func(found Match[In, Out]) {
				stream.Release(found.Suffix)
				out.Complete()
			}, func() {
				emit(out, Match[In, bool]{Value: true, Suffix: stream.Settle(in, in)})
			})
		})
	}
}

// Optional always matches. The value points at m's value, or is nil with a
// zero-width match on the original input when m fails. Errors are still
// forwarded.
func Optional[In, Out any](m Matcher[In, Out]) Matcher[In, *Out] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, *Out]] {
		return stream.Func[Match[In, *Out]](func(out *stream.Sink[Match[In, *Out]]) {
			in := stream.Pin(input)
			out.OnClose(func() { stream.Release(in) })

			attempt(out, m(in), func(found Match[In, Out]) {
				v := found.Value
				suffix := stream.Settle(in, found.Suffix)
				emit(out, Match[In, *Out]{Value: &v, ConsumedInput: found.ConsumedInput, Suffix: suffix})
			}, func() {
				emit(out, Match[In, *Out]{Suffix: stream.Settle(in, in)})
			})
		})
	}
}

// Constant matches immediately with v, consuming nothing. The input is not
// subscribed.
func Constant[In, Out any](v Out) Matcher[In, Out] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, Out]] {
		return stream.Func[Match[In, Out]](func(out *stream.Sink[Match[In, Out]]) {
			emit(out, Match[In, Out]{Value: v, Suffix: input})
		})
	}
}

// Map transforms the value of m's match.
func Map[In, A, B any](m Matcher[In, A], f func(A) B) Matcher[In, B] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, B]] {
		return stream.Map(m(input), func(found Match[In, A]) Match[In, B] {
			return Match[In, B]{Value: f(found.Value), ConsumedInput: found.ConsumedInput, Suffix: found.Suffix}
		})
	}
}

// TryMap is like Map, but f may fail; its error fails the attempt.
func TryMap[In, A, B any](m Matcher[In, A], f func(A) (B, error)) Matcher[In, B] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, B]] {
		return stream.Func[Match[In, B]](func(out *stream.Sink[Match[In, B]]) {
			attempt(out, m(input), func(found Match[In, A]) {
				v, err := f(found.Value)
				if err != nil {
					stream.Release(found.Suffix)
					out.Error(err)
					return
				}
				emit(out, Match[In, B]{Value: v, ConsumedInput: found.ConsumedInput, Suffix: found.Suffix})
			}, out.Complete)
		})
	}
}
