package allocation

import (
	"context"
	"time"

	"github.com/ignite/lead-engine/internal/domain"
)

// ClaimResult is the tri-state outcome of a claim attempt. Errors are
// reported separately; a lost race is not an error.
type ClaimResult int

const (
	ClaimWon ClaimResult = iota
	ClaimLost
)

// PoolRepository is the allocation engine's view of the lead pool:
// candidate discovery, claiming and status transitions.
type PoolRepository interface {
	// FindCandidates returns available entries matching the criteria,
	// ranked by enrichment confidence descending with oldest-first
	// tie-break.
	FindCandidates(ctx context.Context, c domain.AllocationCriteria, limit int) ([]domain.PoolEntry, error)

	// TryClaim attempts an exclusive claim on an available entry,
	// flipping pool_status to assigned. A concurrent claimant holding
	// the row causes ClaimLost, never blocking.
	TryClaim(ctx context.Context, poolID string) (ClaimResult, error)

	// ReleaseToPool returns an assigned entry to available.
	ReleaseToPool(ctx context.Context, poolID string) error

	// MarkConverted permanently retires the entry from the pool.
	MarkConverted(ctx context.Context, poolID string) error
}

// AssignmentRepository persists tenant-lead bindings.
type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.Assignment) error
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)

	// GetActive returns the active assignment for (poolID, tenantID),
	// or ErrNotFound.
	GetActive(ctx context.Context, poolID, tenantID string) (*domain.Assignment, error)

	// ListActiveByTenant returns every active assignment for a tenant.
	ListActiveByTenant(ctx context.Context, tenantID string) ([]domain.Assignment, error)

	// UpdateStatus transitions an assignment and records the reason.
	UpdateStatus(ctx context.Context, id string, status domain.AssignmentStatus, reason string) error

	// RecordTouch increments total_touches, adds the channel to
	// channels_used and stamps the contact/cooling timestamps.
	RecordTouch(ctx context.Context, id string, channel domain.Channel, contactedAt, coolingUntil time.Time) error

	// RecordReply marks the assignment as replied with the given intent.
	RecordReply(ctx context.Context, id string, intent domain.ReplyIntent) error
}
