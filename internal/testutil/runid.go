package testutil

// DefaultRunID is returned by a FixedRunIDs generator created without an ID.
const DefaultRunID = "run-00000000-0000-0000-0000-000000000000"

// FixedRunIDs returns the same run ID every time.
//
// Results and stored runs carry the run ID, so tests pin it to compare
// them across runs.
//
// Thread-safety: FixedRunIDs is stateless and safe for concurrent use.
type FixedRunIDs struct {
	id string
}

// NewFixedRunIDs creates a generator returning id, or DefaultRunID when id
// is empty.
func NewFixedRunIDs(id string) *FixedRunIDs {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDs{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunIDs) Generate() string {
	return g.id
}
