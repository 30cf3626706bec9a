package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/pkg/logger"
)

const (
	// MaxAllocateCount bounds a single allocation pass.
	MaxAllocateCount = 1000

	// candidateOverfetch compensates for claims lost to concurrent
	// allocation runs: we scan more candidates than requested so a
	// losing claimant can still fill its count.
	candidateOverfetch = 3
)

// Service implements the allocation engine. It coordinates the pool
// and assignment repositories; exclusivity comes from TryClaim.
type Service struct {
	pool        PoolRepository
	assignments AssignmentRepository

	defaultMaxTouches int
	coolingPeriod     time.Duration
	now               func() time.Time
}

// NewService creates an allocation service. defaultMaxTouches applies
// when criteria don't specify one; coolingDays is the wait imposed
// after every recorded touch.
func NewService(pool PoolRepository, assignments AssignmentRepository, defaultMaxTouches, coolingDays int) *Service {
	return &Service{
		pool:              pool,
		assignments:       assignments,
		defaultMaxTouches: defaultMaxTouches,
		coolingPeriod:     time.Duration(coolingDays) * 24 * time.Hour,
		now:               time.Now,
	}
}

// Allocate claims up to count available pool entries matching the
// criteria for the tenant. Fewer matches than requested is a partial
// result, not an error. Claims lost to concurrent runs are skipped
// silently.
func (s *Service) Allocate(ctx context.Context, tenantID string, criteria domain.AllocationCriteria, count int) ([]domain.Assignment, error) {
	if count < 1 || count > MaxAllocateCount {
		return nil, fmt.Errorf("%w: got %d", ErrCountOutOfRange, count)
	}

	candidates, err := s.pool.FindCandidates(ctx, criteria, count*candidateOverfetch)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	maxTouches := criteria.MaxTouches
	if maxTouches <= 0 {
		maxTouches = s.defaultMaxTouches
	}

	assignments := make([]domain.Assignment, 0, count)
	lost := 0

	for _, cand := range candidates {
		if len(assignments) == count {
			break
		}

		result, err := s.pool.TryClaim(ctx, cand.ID)
		if err != nil {
			return assignments, fmt.Errorf("claim %s: %w", cand.ID, err)
		}
		if result == ClaimLost {
			lost++
			continue
		}

		a := domain.Assignment{
			ID:          uuid.New().String(),
			PoolEntryID: cand.ID,
			TenantID:    tenantID,
			Status:      domain.AssignmentActive,
			MaxTouches:  maxTouches,
			CreatedAt:   s.now(),
		}
		if err := s.assignments.Create(ctx, &a); err != nil {
			// The claim already flipped the pool row; put it back so the
			// entry isn't stranded in assigned with no assignment.
			if relErr := s.pool.ReleaseToPool(ctx, cand.ID); relErr != nil {
				logger.Error("failed to release stranded claim", "pool_id", cand.ID, "error", relErr)
			}
			return assignments, fmt.Errorf("create assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	logger.Info("allocation pass complete",
		"tenant_id", tenantID,
		"requested", count,
		"allocated", len(assignments),
		"lost_races", lost)
	return assignments, nil
}

// Release returns a lead to the pool. Converted assignments cannot be
// released.
func (s *Service) Release(ctx context.Context, assignmentID, reason string) error {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	switch a.Status {
	case domain.AssignmentConverted:
		return ErrConverted
	case domain.AssignmentReleased:
		return nil // already released, idempotent
	}

	if err := s.assignments.UpdateStatus(ctx, a.ID, domain.AssignmentReleased, reason); err != nil {
		return fmt.Errorf("release assignment: %w", err)
	}
	if err := s.pool.ReleaseToPool(ctx, a.PoolEntryID); err != nil {
		return fmt.Errorf("return entry to pool: %w", err)
	}
	return nil
}

// ReleaseAll releases every active assignment for a tenant. Each entry
// is released independently; a failure on one does not stop the rest.
// Used for tenant offboarding.
func (s *Service) ReleaseAll(ctx context.Context, tenantID, reason string) (int, error) {
	active, err := s.assignments.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("list active assignments: %w", err)
	}

	released := 0
	var firstErr error
	for _, a := range active {
		if err := s.Release(ctx, a.ID, reason); err != nil {
			logger.Error("release failed during offboarding",
				"tenant_id", tenantID, "assignment_id", a.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		released++
	}
	return released, firstErr
}

// MarkConverted permanently retires the lead. The pool entry never
// returns to the pool and Release cannot undo it.
func (s *Service) MarkConverted(ctx context.Context, assignmentID string) error {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.Status == domain.AssignmentConverted {
		return nil
	}
	if a.Status != domain.AssignmentActive {
		return ErrNotActive
	}

	if err := s.assignments.UpdateStatus(ctx, a.ID, domain.AssignmentConverted, "converted"); err != nil {
		return fmt.Errorf("convert assignment: %w", err)
	}
	if err := s.pool.MarkConverted(ctx, a.PoolEntryID); err != nil {
		return fmt.Errorf("retire pool entry: %w", err)
	}
	return nil
}

// RecordTouch registers a completed contact attempt on a channel and
// starts the cooling period.
func (s *Service) RecordTouch(ctx context.Context, assignmentID string, channel domain.Channel) error {
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q", channel)
	}
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.Status != domain.AssignmentActive {
		return ErrNotActive
	}

	now := s.now()
	return s.assignments.RecordTouch(ctx, a.ID, channel, now, now.Add(s.coolingPeriod))
}

// RecordReply registers a reply from the lead with its classified
// intent. Negative intents block further contact in the admission gate.
func (s *Service) RecordReply(ctx context.Context, assignmentID string, intent domain.ReplyIntent) error {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	return s.assignments.RecordReply(ctx, a.ID, intent)
}
