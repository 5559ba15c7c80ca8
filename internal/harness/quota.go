package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/streamparse/stream"
)

// DefaultMaxEvents bounds how many events one channel may deliver in a run.
// Recognizers over unbounded sources would otherwise never finish.
const DefaultMaxEvents = 10000

// EventsExceededError is returned when a run's channel delivers more
// events than the quota allows. The run is aborted instead of recorded.
type EventsExceededError struct {
	RunID   string // The run that exceeded the quota
	Channel string // output or suffix
	Limit   int    // Maximum allowed events
}

// Error implements the error interface.
func (e *EventsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded %s event quota: more than %d events",
		e.RunID, e.Channel, e.Limit)
}

// IsEventsExceededError returns true if the error is an EventsExceededError.
// Uses errors.As to handle wrapped errors.
func IsEventsExceededError(err error) bool {
	var ee *EventsExceededError
	return errors.As(err, &ee)
}

// limitEvents forwards at most limit values of s. The next value cancels s
// and errors with exceeded. A limit of zero or less disables the quota.
func limitEvents[T any](s stream.Stream[T], limit int, exceeded *EventsExceededError) stream.Stream[T] {
	if limit <= 0 {
		return s
	}
	return stream.Func[T](func(sink *stream.Sink[T]) {
		count := 0
		var up *stream.Sink[T]
		up = stream.NewSink(stream.Observer[T]{
			Next: func(v T) {
				count++
				if count > limit {
					up.Cancel()
					sink.Error(exceeded)
					return
				}
				sink.Next(v)
			},
			Error:    sink.Error,
			Complete: sink.Complete,
		})
		sink.OnClose(up.Cancel)
		s.Subscribe(up)
	})
}
