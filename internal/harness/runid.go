package harness

import (
	"github.com/google/uuid"
)

// RunIDGenerator produces run identifiers.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7RunIDs generates time-sortable run IDs of the form "run-<uuidv7>".
//
// UUIDv7 embeds a timestamp in the most significant bits, so runs listed by
// ID come out in creation order.
//
// Thread-safety: UUIDv7RunIDs is stateless and safe for concurrent use.
type UUIDv7RunIDs struct{}

// Generate creates a new run ID.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7RunIDs) Generate() string {
	return "run-" + uuid.Must(uuid.NewV7()).String()
}
