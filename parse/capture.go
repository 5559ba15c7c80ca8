package parse

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/streamparse/stream"
)

// Unbounded is the max count of a repetition with no upper limit.
const Unbounded = -1

// Step is one event of a capture: an Item or a Done.
type Step[In, Out any] interface {
	isStep(In, Out)
}

// Item is an intermediate captured value.
type Item[In, Out any] struct {
	Value Out
}

// Done ends a successful capture. It is emitted at most once, as the last
// step.
type Done[In, Out any] struct {
	ConsumedInput bool
	Suffix        stream.Stream[In]
}

func (Item[In, Out]) isStep(In, Out) {}
func (Done[In, Out]) isStep(In, Out) {}

// Capturer builds a capture over an input stream.
type Capturer[In, Out any] func(input stream.Stream[In]) stream.Stream[Step[In, Out]]

func checkBounds(min, max int) {
	if min < 0 || max < Unbounded || (max != Unbounded && max < min) {
		panic(fmt.Sprintf("parse: invalid repetition bounds min=%d max=%d", min, max))
	}
}

// CaptureRepeated applies m repeatedly, each time on the previous suffix,
// and emits every Match as an Item.
//
// It completes with Done after max matches, with the current suffix, or when
// m fails after at least min matches, with the stream the failing attempt
// saw. With fewer than min matches it ends without Done. ConsumedInput is
// true when any item consumed input.
//
// With max == Unbounded, a zero-width match that satisfies min is emitted
// and then ends the repetition, since repeating it would never advance.
//
// Invalid bounds panic.
func CaptureRepeated[In, Out any](m Matcher[In, Out], min, max int) Capturer[In, Match[In, Out]] {
	checkBounds(min, max)

	done := func(consumed bool, suffix stream.Stream[In]) Step[In, Match[In, Out]] {
		return Done[In, Match[In, Out]]{ConsumedInput: consumed, Suffix: suffix}
	}

	return func(input stream.Stream[In]) stream.Stream[Step[In, Match[In, Out]]] {
		return stream.Func[Step[In, Match[In, Out]]](func(out *stream.Sink[Step[In, Match[In, Out]]]) {
			var cur pending[In, Out]
			out.OnClose(cur.close)

			var next func(count int, in stream.Stream[In], consumed bool)
			next = func(count int, in stream.Stream[In], consumed bool) {
				if count == max {
					out.Next(done(consumed, in))
					out.Complete()
					return
				}
				pin := stream.Pin(in)
				sink := observe(out, func(found Match[In, Out]) {
					found.Suffix = stream.Settle(pin, found.Suffix)
					out.Next(Item[In, Match[In, Out]]{Value: found})
					if !found.ConsumedInput && max == Unbounded && count+1 >= min {
						out.Next(done(consumed, found.Suffix))
						out.Complete()
						return
					}
					next(count+1, found.Suffix, consumed || found.ConsumedInput)
				}, func() {
					rest := stream.Settle(pin, pin)
					if count >= min {
						out.Next(done(consumed, rest))
					} else {
						stream.Release(rest)
					}
					out.Complete()
				})
				if cur.set(sink, pin) {
					m(pin).Subscribe(sink)
				}
			}
			next(0, input, false)
		})
	}
}

// pending is the attempt in progress of a repetition. Closing the output
// cancels it; a repetition tracks one attempt at a time instead of
// registering a teardown per iteration.
type pending[In, Out any] struct {
	mu     sync.Mutex
	sink   *stream.Sink[Match[In, Out]]
	pin    stream.Stream[In]
	closed bool
}

// set makes sink the current attempt. It returns false, with the attempt
// cancelled, once the output has closed.
func (p *pending[In, Out]) set(sink *stream.Sink[Match[In, Out]], pin stream.Stream[In]) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		sink.Cancel()
		stream.Release(pin)
		return false
	}
	p.sink, p.pin = sink, pin
	p.mu.Unlock()
	return true
}

func (p *pending[In, Out]) close() {
	p.mu.Lock()
	p.closed = true
	sink, pin := p.sink, p.pin
	p.sink, p.pin = nil, nil
	p.mu.Unlock()

	if sink != nil {
		sink.Cancel()
		stream.Release(pin)
	}
}

// Capture is CaptureRepeated emitting match values instead of matches.
func Capture[In, Out any](m Matcher[In, Out], min, max int) Capturer[In, Out] {
	return MapCaptures(CaptureRepeated(m, min, max), func(found Match[In, Out]) Out {
		return found.Value
	})
}

// MapCaptures transforms the items of c. Done passes through.
func MapCaptures[In, A, B any](c Capturer[In, A], f func(A) B) Capturer[In, B] {
	return func(input stream.Stream[In]) stream.Stream[Step[In, B]] {
		return stream.Map(c(input), func(s Step[In, A]) Step[In, B] {
			switch s := s.(type) {
			case Item[In, A]:
				return Item[In, B]{Value: f(s.Value)}
			case Done[In, A]:
				return Done[In, B]{ConsumedInput: s.ConsumedInput, Suffix: s.Suffix}
			}
			panic(fmt.Sprintf("parse: unknown capture step %T", s))
		})
	}
}

// inputCapture is the state machine behind CaptureInput.
type inputCapture[In any] struct {
	pred     func(In) bool
	min, max int
	count    int
	out      *stream.Sink[Step[In, In]]
	in       *stream.Reader[In]
	state    atomic.Int32
}

func (c *inputCapture[In]) next(v In) {
	if c.state.Load() != awaitingFirst {
		return
	}

	if c.pred == nil || c.pred(v) {
		c.out.Next(Item[In, In]{Value: v})
		c.count++
		if c.count == c.max {
			c.commit()
		}
		return
	}

	if c.count < c.min {
		if c.state.CompareAndSwap(awaitingFirst, finished) {
			c.in.Cancel()
			c.out.Complete()
		}
		return
	}
	c.commit(v)
}

// commit ends the capture and hands the rest of the input, after any
// pushed back token, to the suffix.
func (c *inputCapture[In]) commit(rest ...In) {
	if !c.state.CompareAndSwap(awaitingFirst, committed) {
		return
	}
	suffix := c.in.Split(rest...)
	c.out.Next(Done[In, In]{ConsumedInput: c.count > 0, Suffix: suffix})
	c.out.Complete()
}

func (c *inputCapture[In]) error(err error) {
	if c.state.CompareAndSwap(awaitingFirst, finished) {
		c.out.Error(err)
	}
}

func (c *inputCapture[In]) complete() {
	if !c.state.CompareAndSwap(awaitingFirst, finished) {
		return
	}
	if c.count >= c.min {
		c.out.Next(Done[In, In]{ConsumedInput: c.count > 0, Suffix: stream.Empty[In]()})
	}
	c.out.Complete()
}

func (c *inputCapture[In]) cancel() {
	if c.state.CompareAndSwap(awaitingFirst, finished) {
		c.in.Cancel()
	}
}

// CaptureInput captures a run of input tokens accepted by pred, without
// building a Match per token. A nil pred accepts every token. The first
// rejected token starts the suffix. Bounds follow CaptureRepeated.
func CaptureInput[In any](pred func(In) bool, min, max int) Capturer[In, In] {
	checkBounds(min, max)

	return func(input stream.Stream[In]) stream.Stream[Step[In, In]] {
		return stream.Func[Step[In, In]](func(out *stream.Sink[Step[In, In]]) {
			if max == 0 {
				out.Next(Done[In, In]{Suffix: input})
				out.Complete()
				return
			}
			c := &inputCapture[In]{pred: pred, min: min, max: max, out: out}
			c.in = stream.NewReader(input, stream.Observer[In]{
				Next:     c.next,
				Error:    c.error,
				Complete: c.complete,
			})
			out.OnClose(c.cancel)
			c.in.Start()
		})
	}
}

// CaptureAllInput captures every input token.
func CaptureAllInput[In any]() Capturer[In, In] {
	return CaptureInput[In](nil, 0, Unbounded)
}

// Collect turns a capture into a match of all its items. The value is never
// nil.
func Collect[In, Out any](c Capturer[In, Out]) Matcher[In, []Out] {
	return Reduce(c, func() []Out { return make([]Out, 0) }, func(acc []Out, v Out) []Out {
		return append(acc, v)
	})
}

// Reduce folds the items of c into a single match value. seed is called
// once per attempt.
func Reduce[In, Out, Acc any](c Capturer[In, Out], seed func() Acc, reducer func(Acc, Out) Acc) Matcher[In, Acc] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, Acc]] {
		return stream.Func[Match[In, Acc]](func(out *stream.Sink[Match[In, Acc]]) {
			acc := seed()
			steps := stream.NewSink(stream.Observer[Step[In, Out]]{
				Next: func(s Step[In, Out]) {
					switch s := s.(type) {
					case Item[In, Out]:
						acc = reducer(acc, s.Value)
					case Done[In, Out]:
						out.Next(Match[In, Acc]{Value: acc, ConsumedInput: s.ConsumedInput, Suffix: s.Suffix})
					}
				},
				Error:    out.Error,
				Complete: out.Complete,
			})
			out.OnClose(steps.Cancel)
			c(input).Subscribe(steps)
		})
	}
}
