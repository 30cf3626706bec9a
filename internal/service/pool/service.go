package pool

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/lead-engine/internal/domain"
)

// Service implements lead pool business logic. It is safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a pool service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertInput holds an enrichment record from the feed. Zero-value
// fields are treated as absent and never overwrite stored enrichment.
type UpsertInput struct {
	Email         string             `json:"email"`
	FirstName     string             `json:"first_name"`
	LastName      string             `json:"last_name"`
	Title         string             `json:"title"`
	Seniority     string             `json:"seniority"`
	CompanyName   string             `json:"company_name"`
	Industry      string             `json:"industry"`
	Country       string             `json:"country"`
	EmployeeCount int                `json:"employee_count"`
	Confidence    float64            `json:"confidence"`
	EmailStatus   domain.EmailStatus `json:"email_status"`
}

// NormalizeEmail lowercases and trims an email address. All pool and
// suppression lookups key off this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Upsert inserts or merges an enrichment record. Returns
// ErrEmailMissing for records without an email address.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (*domain.PoolEntry, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrEmailMissing
	}

	status := in.EmailStatus
	if status == "" {
		status = domain.EmailUnknown
	}

	entry := &domain.PoolEntry{
		ID:            uuid.New().String(),
		Email:         email,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Title:         in.Title,
		Seniority:     in.Seniority,
		CompanyName:   in.CompanyName,
		Industry:      in.Industry,
		Country:       in.Country,
		EmployeeCount: in.EmployeeCount,
		Confidence:    in.Confidence,
		EmailStatus:   status,
		PoolStatus:    domain.PoolAvailable,
	}

	return s.repo.Upsert(ctx, entry)
}

// GetByID returns a single pool entry.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.PoolEntry, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns the entry for a (not necessarily normalized) email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.PoolEntry, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// MarkBounced permanently blocks the identity platform-wide. Calling it
// twice is a no-op.
func (s *Service) MarkBounced(ctx context.Context, id string) error {
	return s.repo.MarkBounced(ctx, id)
}

// MarkUnsubscribed permanently blocks the identity platform-wide.
// Calling it twice is a no-op.
func (s *Service) MarkUnsubscribed(ctx context.Context, id string) error {
	return s.repo.MarkUnsubscribed(ctx, id)
}
