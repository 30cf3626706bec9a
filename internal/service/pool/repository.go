package pool

import (
	"context"

	"github.com/ignite/lead-engine/internal/domain"
)

// Repository defines the data access contract for the lead pool.
type Repository interface {
	// Upsert inserts a new entry or merges enrichment fields into the
	// existing entry with the same normalized email. The merge never
	// demotes pool_status; concurrent upserts of the same email must
	// converge to one row. Returns the stored entry.
	Upsert(ctx context.Context, e *domain.PoolEntry) (*domain.PoolEntry, error)

	// GetByID returns the entry with the given ID, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.PoolEntry, error)

	// GetByEmail returns the entry with the given normalized email, or
	// ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.PoolEntry, error)

	// MarkBounced sets the permanent platform-wide bounce flag and
	// status. Idempotent.
	MarkBounced(ctx context.Context, id string) error

	// MarkUnsubscribed sets the permanent platform-wide unsubscribe
	// flag and status. Idempotent.
	MarkUnsubscribed(ctx context.Context, id string) error
}
