package store

import (
	"fmt"

	"github.com/roach88/streamparse/internal/ir"
)

// marshalPayload converts an event payload to canonical JSON TEXT for storage.
// A nil payload is stored as null.
func marshalPayload(v ir.Value) (string, error) {
	if v == nil {
		v = ir.Null{}
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload parses canonical JSON TEXT back into a value.
// Integers are decoded through json.Number, so values above 2^53 keep
// their precision.
func unmarshalPayload(data string) (ir.Value, error) {
	v, err := ir.Unmarshal([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
