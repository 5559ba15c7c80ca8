package stream

import (
	"context"
	"errors"
	"iter"
)

// ErrNilStream is returned when a nil Stream is drained.
var ErrNilStream = errors.New("stream: nil stream")

// Stream is a push-based source of values.
//
// Subscribe starts delivery into sink. Delivery may happen synchronously
// before Subscribe returns or later from another goroutine.
type Stream[T any] interface {
	Subscribe(sink *Sink[T])
}

// Func adapts a plain function to the Stream interface.
type Func[T any] func(sink *Sink[T])

// Subscribe calls f(sink).
func (f Func[T]) Subscribe(sink *Sink[T]) {
	f(sink)
}

// Subscribe attaches obs to s and returns the sink, whose Cancel method is
// the cancellation handle for the subscription.
func Subscribe[T any](s Stream[T], obs Observer[T]) *Sink[T] {
	sink := NewSink(obs)
	s.Subscribe(sink)
	return sink
}

// Of returns a cold stream of the given values.
func Of[T any](values ...T) Stream[T] {
	return FromSlice(values)
}

// FromSlice returns a cold stream that replays values to each subscriber.
func FromSlice[T any](values []T) Stream[T] {
	return Func[T](func(sink *Sink[T]) {
		for _, v := range values {
			if sink.Closed() {
				return
			}
			sink.Next(v)
		}
		sink.Complete()
	})
}

// FromSeq returns a cold stream over seq. The sequence is re-run for each
// subscriber and abandoned as soon as the subscriber cancels.
func FromSeq[T any](seq iter.Seq[T]) Stream[T] {
	return Func[T](func(sink *Sink[T]) {
		for v := range seq {
			if sink.Closed() {
				return
			}
			sink.Next(v)
		}
		sink.Complete()
	})
}

// Empty returns a stream that completes immediately.
func Empty[T any]() Stream[T] {
	return Func[T](func(sink *Sink[T]) {
		sink.Complete()
	})
}

// Fail returns a stream that fails immediately with err.
func Fail[T any](err error) Stream[T] {
	return Func[T](func(sink *Sink[T]) {
		sink.Error(err)
	})
}

// Concat subscribes to each stream in turn once the previous one completes.
// An error from any segment terminates the concatenation.
func Concat[T any](streams ...Stream[T]) Stream[T] {
	return Func[T](func(sink *Sink[T]) {
		var run func(i int)
		run = func(i int) {
			if i == len(streams) {
				sink.Complete()
				return
			}
			inner := NewSink(Observer[T]{
				Next:     sink.Next,
				Error:    sink.Error,
				Complete: func() { run(i + 1) },
			})
			sink.OnClose(inner.Cancel)
			streams[i].Subscribe(inner)
		}
		run(0)
	})
}

// Map applies f to every value of s.
func Map[T, U any](s Stream[T], f func(T) U) Stream[U] {
	return Func[U](func(sink *Sink[U]) {
		up := NewSink(Observer[T]{
			Next:     func(v T) { sink.Next(f(v)) },
			Error:    sink.Error,
			Complete: sink.Complete,
		})
		sink.OnClose(up.Cancel)
		s.Subscribe(up)
	})
}

// FromChannel returns a hot stream draining ch on a dedicated goroutine.
//
// The stream supports a single subscriber: a second subscription would
// compete for the same channel. Wrap it with Share when the parse engine
// needs to re-read already delivered values (alternation, lookahead).
//
// The stream completes when ch is closed and fails with ctx.Err() when ctx
// is done first. Cancelling the subscription stops the goroutine.
func FromChannel[T any](ctx context.Context, ch <-chan T) Stream[T] {
	return Func[T](func(sink *Sink[T]) {
		ctx, cancel := context.WithCancel(ctx)
		sink.OnClose(cancel)

		go func() {
			for {
				select {
				case <-ctx.Done():
					sink.Error(ctx.Err())
					return
				case v, ok := <-ch:
					if !ok {
						sink.Complete()
						return
					}
					sink.Next(v)
				}
			}
		}()
	})
}
