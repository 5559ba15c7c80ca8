package stream

import (
	"context"
	"sync"
)

// Collect drains s into a slice.
//
// It blocks until s terminates or ctx is done. On a source error the values
// received so far are returned with the error. On ctx expiry the
// subscription is cancelled and ctx.Err() is returned.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	if s == nil {
		return nil, ErrNilStream
	}

	var (
		values = make([]T, 0)
		err    error
		done   = make(chan struct{})
	)

	sink := Subscribe(s, Observer[T]{
		Next:     func(v T) { values = append(values, v) },
		Error:    func(e error) { err = e; close(done) },
		Complete: func() { close(done) },
	})

	select {
	case <-done:
		return values, err
	case <-ctx.Done():
		sink.Cancel()
		return nil, ctx.Err()
	}
}

// First waits for the first value of s and cancels the subscription.
// The boolean is false when s completed without a value.
func First[T any](ctx context.Context, s Stream[T]) (T, bool, error) {
	var zero T
	if s == nil {
		return zero, false, ErrNilStream
	}

	var (
		value T
		found bool
		err   error
		once  sync.Once
		done  = make(chan struct{})
	)
	finish := func() { once.Do(func() { close(done) }) }

	var sink *Sink[T]
	sink = NewSink(Observer[T]{
		Next: func(v T) {
			if found {
				return
			}
			value, found = v, true
			finish()
			sink.Cancel()
		},
		Error:    func(e error) { err = e; finish() },
		Complete: finish,
	})
	s.Subscribe(sink)

	select {
	case <-done:
		if found {
			return value, true, nil
		}
		return zero, false, err
	case <-ctx.Done():
		sink.Cancel()
		return zero, false, ctx.Err()
	}
}
