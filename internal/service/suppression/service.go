package suppression

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/lead-engine/internal/domain"
)

// Service implements suppression business logic. It is safe for
// concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a suppression service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Lookup returns the tenant's suppression entry for an email, or
// (nil, nil) if the email is not suppressed. The admission gate calls
// this before every send.
func (s *Service) Lookup(ctx context.Context, tenantID, email string) (*domain.Suppression, error) {
	return s.repo.Lookup(ctx, tenantID, normalize(email))
}

// IsSuppressed reports whether the tenant has blocked this email.
func (s *Service) IsSuppressed(ctx context.Context, tenantID, email string) (bool, error) {
	entry, err := s.repo.Lookup(ctx, tenantID, normalize(email))
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// Suppress adds an email to the tenant's do-not-contact list.
// Idempotent: if the email is already suppressed, the existing record
// and its original reason are preserved.
func (s *Service) Suppress(ctx context.Context, tenantID, email string, reason domain.SuppressionReason) error {
	email = normalize(email)
	if email == "" {
		return ErrEmailMissing
	}

	entry := &domain.Suppression{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Email:    email,
		Reason:   reason,
	}
	return s.repo.Suppress(ctx, entry)
}

// Remove deletes a suppression entry. Returns ErrNotFound if the email
// is not suppressed by this tenant.
func (s *Service) Remove(ctx context.Context, tenantID, email string) error {
	email = normalize(email)
	if email == "" {
		return ErrEmailMissing
	}
	return s.repo.Remove(ctx, tenantID, email)
}

// List returns suppression entries matching the given filter.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]domain.Suppression, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

// Count returns the total number of suppressed emails for a tenant.
func (s *Service) Count(ctx context.Context, tenantID string) (int, error) {
	return s.repo.Count(ctx, tenantID)
}

// Stats holds aggregate counts grouped by reason.
type Stats struct {
	Total    int            `json:"total"`
	ByReason map[string]int `json:"by_reason"`
}

// GetStats computes suppression statistics for a tenant.
func (s *Service) GetStats(ctx context.Context, tenantID string) (*Stats, error) {
	entries, total, err := s.repo.List(ctx, tenantID, ListFilter{Limit: 0})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:    total,
		ByReason: make(map[string]int),
	}
	for _, e := range entries {
		stats.ByReason[string(e.Reason)]++
	}
	return stats, nil
}
