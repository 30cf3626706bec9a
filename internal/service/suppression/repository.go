package suppression

import (
	"context"

	"github.com/ignite/lead-engine/internal/domain"
)

// Repository defines the data access contract for tenant suppression
// lists.
type Repository interface {
	// Lookup returns the suppression entry for (tenantID, email), or
	// (nil, nil) if the email is not suppressed by this tenant.
	Lookup(ctx context.Context, tenantID, email string) (*domain.Suppression, error)

	// Suppress adds an email to the tenant's list. If it already
	// exists, the existing record is preserved (idempotent).
	Suppress(ctx context.Context, s *domain.Suppression) error

	// Remove deletes a suppression entry. Returns ErrNotFound if it
	// doesn't exist.
	Remove(ctx context.Context, tenantID, email string) error

	// List returns the tenant's entries matching the filter, plus the
	// total match count before pagination.
	List(ctx context.Context, tenantID string, filter ListFilter) ([]domain.Suppression, int, error)

	// Count returns the total number of suppressed emails for a tenant.
	Count(ctx context.Context, tenantID string) (int, error)
}

// ListFilter controls pagination and filtering for suppression lists.
type ListFilter struct {
	Reason string
	Search string
	Limit  int
	Offset int
}
