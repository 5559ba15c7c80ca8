package parse

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roach88/streamparse/stream"
)

var errTest = errors.New("test error")

const (
	statusMatched      = "matched"
	statusCaptured     = "captured"
	statusFailed       = "failed"
	statusMatchError   = "match_error"
	statusCaptureError = "capture_error"
	statusSuffixError  = "suffix_error"
)

type matchResult[In, Out any] struct {
	Status        string
	Value         Out
	ConsumedInput bool
	Suffix        []In
	Err           error
}

type captureResult[In, Out any] struct {
	Status        string
	Items         []Out
	ConsumedInput bool
	Suffix        []In
	Err           error
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testMatch drives m over input and drains the suffix of its match.
func testMatch[In, Out any](t *testing.T, input stream.Stream[In], m Matcher[In, Out]) matchResult[In, Out] {
	t.Helper()
	ctx := testContext(t)

	results, err := stream.Collect(ctx, m(input))
	if err != nil {
		return matchResult[In, Out]{Status: statusMatchError, Err: err}
	}
	switch len(results) {
	case 0:
		return matchResult[In, Out]{Status: statusFailed}
	case 1:
	default:
		t.Fatalf("matcher emitted %d matches", len(results))
	}

	found := results[0]
	suffix, err := stream.Collect(ctx, found.Suffix)
	if err != nil {
		return matchResult[In, Out]{Status: statusSuffixError, Err: err}
	}
	return matchResult[In, Out]{
		Status:        statusMatched,
		Value:         found.Value,
		ConsumedInput: found.ConsumedInput,
		Suffix:        suffix,
	}
}

// testCapture drives c over input and checks that Done, if any, is last.
func testCapture[In, Out any](t *testing.T, input stream.Stream[In], c Capturer[In, Out]) captureResult[In, Out] {
	t.Helper()
	ctx := testContext(t)

	steps, err := stream.Collect(ctx, c(input))
	if err != nil {
		return captureResult[In, Out]{Status: statusCaptureError, Err: err}
	}

	items := make([]Out, 0, len(steps))
	var done *Done[In, Out]
	for i, s := range steps {
		switch s := s.(type) {
		case Item[In, Out]:
			if done != nil {
				t.Fatalf("item after done at step %d", i)
			}
			items = append(items, s.Value)
		case Done[In, Out]:
			if done != nil {
				t.Fatalf("second done at step %d", i)
			}
			done = &s
		}
	}
	if done == nil {
		return captureResult[In, Out]{Status: statusFailed}
	}

	suffix, err := stream.Collect(ctx, done.Suffix)
	if err != nil {
		return captureResult[In, Out]{Status: statusSuffixError, Err: err}
	}
	return captureResult[In, Out]{
		Status:        statusCaptured,
		Items:         items,
		ConsumedInput: done.ConsumedInput,
		Suffix:        suffix,
	}
}

// countingSource emits 0..n-1 and records how many values it produced.
func countingSource(n int, produced *int) stream.Stream[int] {
	return stream.Func[int](func(sink *stream.Sink[int]) {
		for i := range n {
			if sink.Closed() {
				return
			}
			*produced++
			sink.Next(i)
		}
		sink.Complete()
	})
}

func odd(v int) bool  { return v%2 == 1 }
func even(v int) bool { return v%2 == 0 }

// within runs f and fails the test if it does not return in d.
func within(t *testing.T, d time.Duration, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("did not finish within %v", d)
	}
}

// naturals is an unbounded synchronous source of 0, 1, 2, ...
func naturals(produced *atomic.Int64) stream.Stream[int] {
	return stream.FromSeq(func(yield func(int) bool) {
		for i := 0; ; i++ {
			produced.Add(1)
			if !yield(i) {
				return
			}
		}
	})
}

// accepting reports whether something still receives from ch.
func accepting(ch chan<- int) bool {
	select {
	case ch <- 0:
		return true
	case <-time.After(10 * time.Millisecond):
		return false
	}
}
