// Package stream implements the push-based token streams the parse engine
// consumes.
//
// A Stream delivers values to a Sink until it completes, fails with an error,
// or the sink is cancelled. Delivery is synchronous on whatever goroutine
// drives the producer; the package starts no goroutines of its own except in
// FromChannel, which drains a Go channel on behalf of its single subscriber.
//
// # Ownership
//
// A source is consumed by exactly one active subscriber at a time. Fan-out
// happens only through Replay, the multicast log behind every match
// suffix. Suffixes are Cursors, positions in a log. A linear cursor is read
// once; a pinned cursor (Share, Pin) can be read repeatedly from the same
// position until released. The log keeps values only while some cursor or
// catching-up reader needs them, and cancels its upstream once nothing can
// read it any more.
//
// # Terminal events
//
// Every subscription ends in at most one terminal event: Error or Complete.
// Cancelling a sink ends the subscription without a terminal event. Once a
// sink is closed its teardown functions run exactly once and further events
// are dropped.
package stream
