package domain

import (
	"time"

	"github.com/google/uuid"
)

// rowNamespace scopes deterministic row keys so they never collide with
// UUIDs generated for other purposes.
var rowNamespace = uuid.MustParse("0b6f3b2e-6f55-4b57-9d55-5f0c2a7c1e11")

// Run identifies a single invocation of the batch job.
type Run struct {
	ID        string
	StartedAt time.Time
}

// NewRun stamps a new run with a random ID and the current clock time.
func NewRun() Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: Now().UTC(),
	}
}

// RowKey returns a deterministic key for a response row, derived from its
// source position and submission timestamp. Re-running on the same input
// yields the same keys.
func RowKey(r *Row) string {
	return uuid.NewSHA1(rowNamespace, []byte(r.Key())).String()
}
