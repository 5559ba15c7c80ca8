package stream

import "sync"

// Observer holds the callbacks a subscriber wants invoked.
// Nil callbacks are skipped.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// Sink is the receiving end of a subscription.
//
// Producers push into it with Next, Error and Complete; consumers stop
// delivery with Cancel. Producers should poll Closed between values so a
// cancelled subscription stops generating work.
//
// Thread-safety: the closed flag and teardown list are mutex protected, so
// Cancel may race with delivery from a producer goroutine. Callbacks are never
// invoked while the lock is held.
type Sink[T any] struct {
	obs Observer[T]

	mu       sync.Mutex
	closed   bool
	teardown []func()
}

// NewSink creates an open sink delivering to obs.
func NewSink[T any](obs Observer[T]) *Sink[T] {
	return &Sink[T]{obs: obs}
}

// Next delivers a value. Dropped if the sink is closed.
func (s *Sink[T]) Next(v T) {
	if s.Closed() {
		return
	}
	if s.obs.Next != nil {
		s.obs.Next(v)
	}
}

// Error delivers a terminal error and closes the sink.
func (s *Sink[T]) Error(err error) {
	teardown, ok := s.close()
	if !ok {
		return
	}
	if s.obs.Error != nil {
		s.obs.Error(err)
	}
	runAll(teardown)
}

// Complete delivers successful termination and closes the sink.
func (s *Sink[T]) Complete() {
	teardown, ok := s.close()
	if !ok {
		return
	}
	if s.obs.Complete != nil {
		s.obs.Complete()
	}
	runAll(teardown)
}

// Cancel closes the sink without a terminal event.
func (s *Sink[T]) Cancel() {
	teardown, ok := s.close()
	if !ok {
		return
	}
	runAll(teardown)
}

// Closed reports whether the sink has terminated or been cancelled.
func (s *Sink[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// OnClose registers f to run once when the sink closes for any reason.
// If the sink is already closed, f runs immediately.
func (s *Sink[T]) OnClose(f func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		f()
		return
	}
	s.teardown = append(s.teardown, f)
	s.mu.Unlock()
}

func (s *Sink[T]) close() ([]func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	s.closed = true
	teardown := s.teardown
	s.teardown = nil
	return teardown, true
}

func runAll(fs []func()) {
	for _, f := range fs {
		f()
	}
}
