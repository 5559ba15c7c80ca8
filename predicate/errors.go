package predicate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange reports a range whose minimum exceeds its maximum.
	ErrInvalidRange = errors.New("invalid range")

	// ErrUnsupported reports a convenience input ToIntegerTest cannot
	// interpret.
	ErrUnsupported = errors.New("unsupported integer test input")
)

// RangeError describes a malformed range passed to a constructor.
type RangeError struct {
	// Index is the position of the range in the constructor input.
	Index int
	Min   int64
	Max   int64
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range at index %d: min %d > max %d", e.Index, e.Min, e.Max)
}

// Unwrap makes errors.Is(err, ErrInvalidRange) hold.
func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// IsInvalidRange reports whether err is, or wraps, an invalid range error.
func IsInvalidRange(err error) bool {
	return errors.Is(err, ErrInvalidRange)
}
