package testutil

import "github.com/roach88/streamparse/stream"

// FailAfter returns a cold stream that emits values and then fails with err.
// A nil err completes normally instead.
func FailAfter[T any](err error, values ...T) stream.Stream[T] {
	if err == nil {
		return stream.FromSlice(values)
	}
	return stream.Concat(stream.FromSlice(values), stream.Fail[T](err))
}

// Counted wraps s and reports how many values were delivered downstream
// through counter. It lets tests check that cancellation stops a source.
func Counted[T any](s stream.Stream[T], counter *int) stream.Stream[T] {
	return stream.Func[T](func(sink *stream.Sink[T]) {
		up := stream.NewSink(stream.Observer[T]{
			Next: func(v T) {
				*counter++
				sink.Next(v)
			},
			Error:    sink.Error,
			Complete: sink.Complete,
		})
		sink.OnClose(up.Cancel)
		s.Subscribe(up)
	})
}
