package parse

import (
	"context"
	"log/slog"

	"github.com/roach88/streamparse/stream"
)

// Status is the outcome of Run.
type Status string

const (
	Matched Status = "matched"
	Failed  Status = "failed"
)

// Result is the outcome of running a matcher to its first event.
type Result[In, Out any] struct {
	Status Status
	Match  Match[In, Out]
}

// Run applies m to input and waits for the outcome. An input error or a
// failing test is returned as an error; ctx bounds the wait.
//
// The caller owns Result.Match.Suffix and must drain or release it. Until
// then the input stays subscribed and what it produces is retained; with a
// synchronous source Run returns only after that source finished. Use
// Recognize when the suffix is not needed.
func Run[In, Out any](ctx context.Context, m Matcher[In, Out], input stream.Stream[In]) (Result[In, Out], error) {
	found, ok, err := stream.First(ctx, m(input))
	if err != nil {
		return Result[In, Out]{}, err
	}
	if !ok {
		return Result[In, Out]{Status: Failed}, nil
	}
	return Result[In, Out]{Status: Matched, Match: found}, nil
}

// Recognize is Run for callers that only need the outcome. The suffix is
// released as soon as the match commits, which cancels the input, so it
// returns promptly on unbounded sources. Result.Match.Suffix is nil.
func Recognize[In, Out any](ctx context.Context, m Matcher[In, Out], input stream.Stream[In]) (Result[In, Out], error) {
	discard := func(input stream.Stream[In]) stream.Stream[Match[In, Out]] {
		return stream.Map(m(input), func(found Match[In, Out]) Match[In, Out] {
			stream.Release(found.Suffix)
			found.Suffix = nil
			return found
		})
	}
	return Run(ctx, discard, input)
}

// Debug wraps m, logging each attempt and its outcome through slog.Default
// at debug level. Values are passed through unchanged.
func Debug[In, Out any](name string, m Matcher[In, Out]) Matcher[In, Out] {
	return func(input stream.Stream[In]) stream.Stream[Match[In, Out]] {
		return stream.Func[Match[In, Out]](func(out *stream.Sink[Match[In, Out]]) {
			logger := slog.Default().With("matcher", name)
			logger.Debug("attempt")

			matched := false
			inner := stream.NewSink(stream.Observer[Match[In, Out]]{
				Next: func(found Match[In, Out]) {
					matched = true
					logger.Debug("matched", "value", found.Value, "consumed_input", found.ConsumedInput)
					out.Next(found)
				},
				Error: func(err error) {
					logger.Debug("error", "error", err)
					out.Error(err)
				},
				Complete: func() {
					if !matched {
						logger.Debug("failed")
					}
					out.Complete()
				},
			})
			out.OnClose(inner.Cancel)
			m(input).Subscribe(inner)
		})
	}
}
