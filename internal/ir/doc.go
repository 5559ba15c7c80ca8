// Package ir provides the value representation used to record parse traces.
//
// Tokens and match values are arbitrary Go values. Before they are written
// to a golden file or the run store they are converted with FromGo into a
// small sealed value model and serialized with MarshalCanonical, so the same
// trace always produces the same bytes.
//
// Key design constraints:
//   - NO float values: integral floats become Int, others are rejected
//   - null is allowed (absent optional values)
//   - object keys are ordered by UTF-16 code units
//   - strings are NFC normalized at the serialization boundary
package ir
