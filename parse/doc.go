// Package parse provides backtracking parser combinators over push-based
// token streams.
//
// A Matcher turns an input stream into a stream that emits at most one
// Match and then completes. A Match carries the recognized value, whether
// any input was consumed, and the Suffix: the stream of tokens remaining
// after the match. Completing without a Match means the recognizer did not
// apply; this is not an error. Errors from the input are forwarded on the
// output until a match commits, and on the suffix afterwards, never on both.
//
// Matchers compose by feeding one match's Suffix to the next matcher:
//
//	sign := parse.Optional(parse.MatchEqual('-'))
//	digits := parse.Collect(parse.CaptureInput(isDigit, 1, parse.Unbounded))
//	number := parse.Pair(sign, digits)
//
// A Suffix is a stream.Cursor read once by whoever receives it. Committing
// a match on a cursor yields a cursor into the same buffer, so chains of
// matches do not stack buffers. Alternation, lookahead, Optional and
// repetition pin their input while they may still re-read it and release
// it when they commit. Plain Go streams are re-read by subscribing again,
// so hot sources must be wrapped with stream.CursorOf or stream.Share
// before they reach the engine.
//
// A Capturer is the repeating counterpart of a Matcher. It emits a sequence
// of Item steps followed by exactly one Done step, or ends without Done when
// the repetition could not be satisfied.
//
// The engine spawns no goroutines. Delivery happens on whichever goroutine
// drives the input.
package parse
