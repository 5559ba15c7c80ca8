package parse

import (
	"sync/atomic"

	"github.com/roach88/streamparse/predicate"
	"github.com/roach88/streamparse/stream"
)

// Match is a successful recognition.
type Match[In, Out any] struct {
	// Value is the recognized value.
	Value Out

	// ConsumedInput is false for zero-width matches (lookahead, constants,
	// optional fallbacks).
	ConsumedInput bool

	// Suffix yields the input remaining after the match. It can be read
	// once; a caller that drops it unread should stream.Release it so the
	// input can be cancelled.
	Suffix stream.Stream[In]
}

// Matcher builds a match attempt over an input stream. The returned stream
// emits at most one Match and then completes, or fails with an input error.
type Matcher[In, Out any] func(input stream.Stream[In]) stream.Stream[Match[In, Out]]

// Split is the result of recognizing the first token of a stream.
type Split[In, Out any] struct {
	Value Out

	// Rest, when HasRest is set, is pushed to the front of the suffix. Text
	// recognizers use it for the unmatched tail of a partially consumed token.
	Rest    In
	HasRest bool

	ConsumedInput bool
}

// SplitFunc examines the first token. It returns false to reject it.
type SplitFunc[In, Out any] func(token In) (Split[In, Out], bool, error)

// Recognizer states.
const (
	awaitingFirst int32 = iota
	committed
	finished
)

// recognizer is the single-token state machine behind MatchSplit.
//
// awaitingFirst: the first upstream event decides the outcome.
// committed: a match was emitted; the reader handed the rest of the input
// to the suffix cursor and no longer receives anything.
// finished: rejected, failed or cancelled; upstream has been cancelled.
type recognizer[In, Out any] struct {
	split SplitFunc[In, Out]
	out   *stream.Sink[Match[In, Out]]
	in    *stream.Reader[In]
	state atomic.Int32
}

func (r *recognizer[In, Out]) next(v In) {
	if r.state.Load() != awaitingFirst {
		return
	}

	s, ok, err := r.split(v)
	if err != nil {
		r.stop(func() { r.out.Error(err) })
		return
	}
	if !ok {
		r.stop(r.out.Complete)
		return
	}

	if !r.state.CompareAndSwap(awaitingFirst, committed) {
		return
	}
	var suffix *stream.Cursor[In]
	if s.HasRest {
		suffix = r.in.Split(s.Rest)
	} else {
		suffix = r.in.Split()
	}
	r.out.Next(Match[In, Out]{Value: s.Value, ConsumedInput: s.ConsumedInput, Suffix: suffix})
	r.out.Complete()
}

func (r *recognizer[In, Out]) error(err error) {
	if r.state.CompareAndSwap(awaitingFirst, finished) {
		r.out.Error(err)
	}
}

func (r *recognizer[In, Out]) complete() {
	if r.state.CompareAndSwap(awaitingFirst, finished) {
		r.out.Complete()
	}
}

// stop cancels upstream and reports the outcome on the output.
func (r *recognizer[In, Out]) stop(report func()) {
	if !r.state.CompareAndSwap(awaitingFirst, finished) {
		return
	}
	r.in.Cancel()
	report()
}

// cancel runs when the output closes. Only a pending attempt cancels
// upstream; after a commit the suffix owns the rest of the input.
func (r *recognizer[In, Out]) cancel() {
	if r.state.CompareAndSwap(awaitingFirst, finished) {
		r.in.Cancel()
	}
}

// MatchSplit returns a single-shot recognizer driven by split.
func MatchSplit[In, Out any](split SplitFunc[In, Out]) Matcher[In, Out] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, Out]] {
		return stream.Func[Match[In, Out]](func(out *stream.Sink[Match[In, Out]]) {
			r := &recognizer[In, Out]{split: split, out: out}
			r.in = stream.NewReader(input, stream.Observer[In]{
				Next:     r.next,
				Error:    r.error,
				Complete: r.complete,
			})
			out.OnClose(r.cancel)
			r.in.Start()
		})
	}
}

// MatchFunc recognizes the first token when test accepts it. An error from
// test fails the attempt.
func MatchFunc[In any](test func(In) (bool, error)) Matcher[In, In] {
	return MatchSplit(func(v In) (Split[In, In], bool, error) {
		ok, err := test(v)
		if err != nil || !ok {
			return Split[In, In]{}, false, err
		}
		return Split[In, In]{Value: v, ConsumedInput: true}, true, nil
	})
}

// MatchIf recognizes the first token when pred accepts it.
func MatchIf[In any](pred func(In) bool) Matcher[In, In] {
	return MatchFunc(func(v In) (bool, error) {
		return pred(v), nil
	})
}

// MatchAny recognizes any first token. It fails only on an empty input.
func MatchAny[In any]() Matcher[In, In] {
	return MatchIf(func(In) bool { return true })
}

// MatchEqual recognizes a first token equal to want.
func MatchEqual[In comparable](want In) Matcher[In, In] {
	return MatchIf(func(v In) bool { return v == want })
}

// Integer is the set of token types MatchInteger accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

// MatchInteger recognizes a first token accepted by test.
func MatchInteger[In Integer](test predicate.IntegerTest) Matcher[In, In] {
	return MatchIf(func(v In) bool { return test.Test(int64(v)) })
}
