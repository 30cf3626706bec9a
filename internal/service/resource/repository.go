package resource

import (
	"context"
	"time"

	"github.com/ignite/lead-engine/internal/domain"
)

// Repository is the persistence contract for sending resources.
type Repository interface {
	// GetByID returns a resource entry, or (nil, nil) if none exists.
	GetByID(ctx context.Context, id string) (*domain.ResourceEntry, error)

	// ListActive returns the tenant's resources with status active,
	// in stable order.
	ListActive(ctx context.Context, tenantID string) ([]domain.ResourceEntry, error)

	// ListIDs returns the ids of every non-retired resource. The
	// maintenance job walks this list.
	ListIDs(ctx context.Context) ([]string, error)

	// RollingWindow counts send outcomes for a resource since the
	// given instant.
	RollingWindow(ctx context.Context, resourceID string, since time.Time) (sends, bounces, complaints int, err error)

	// UsedToday counts send events for a resource on the given UTC day.
	UsedToday(ctx context.Context, resourceID string, day time.Time) (int, error)

	// UpdateHealth persists a recomputed health classification together
	// with the window counters it was derived from.
	UpdateHealth(ctx context.Context, resourceID string, health domain.HealthStatus, dailyLimit, sends, bounces, complaints int) error

	// RecordSendEvent appends one send outcome to the resource's
	// history. Events feed both UsedToday and RollingWindow.
	RecordSendEvent(ctx context.Context, resourceID string, outcome domain.SendOutcome, at time.Time) error

	// CountAvailable counts active resources whose health is good.
	CountAvailable(ctx context.Context) (int, error)

	// CountWarming counts resources still in their warming period.
	CountWarming(ctx context.Context) (int, error)
}

// AssignmentCounter reports current allocation demand. The buffer
// calculation reads it fresh each run instead of tracking a counter.
type AssignmentCounter interface {
	CountActive(ctx context.Context) (int, error)
}
