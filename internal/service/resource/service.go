package resource

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ignite/lead-engine/internal/config"
	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/pkg/logger"
)

// Service computes capacity and health for shared sending resources.
type Service struct {
	repo        Repository
	assignments AssignmentCounter
	cfg         config.ResourceConfig
	now         func() time.Time
}

// NewService creates a resource service.
func NewService(repo Repository, assignments AssignmentCounter, cfg config.ResourceConfig) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		cfg:         cfg,
		now:         time.Now,
	}
}

// dailyLimitFor maps a health classification to its sending ceiling.
// Critical resources are paused outright.
func (s *Service) dailyLimitFor(h domain.HealthStatus) int {
	switch h {
	case domain.HealthGood:
		return s.cfg.DailyLimitGood
	case domain.HealthWarning:
		return s.cfg.DailyLimitWarning
	default:
		return 0
	}
}

// GetCapacity derives today's sending budget for a resource. A slice
// of the daily limit is reserved for inbound-triggered replies, so
// outbound capacity is what remains after usage and that reserve.
func (s *Service) GetCapacity(ctx context.Context, resourceID string) (domain.Capacity, error) {
	entry, err := s.repo.GetByID(ctx, resourceID)
	if err != nil {
		return domain.Capacity{}, fmt.Errorf("loading resource %s: %w", resourceID, err)
	}
	if entry == nil {
		return domain.Capacity{}, ErrNotFound
	}

	used, err := s.repo.UsedToday(ctx, resourceID, s.now().UTC())
	if err != nil {
		return domain.Capacity{}, fmt.Errorf("counting today's sends for %s: %w", resourceID, err)
	}

	limit := s.dailyLimitFor(entry.HealthStatus)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	buffer := int(float64(limit) * s.cfg.ResponseBufferRatio)
	if buffer > remaining {
		buffer = remaining
	}

	return domain.Capacity{
		ResourceID:           resourceID,
		DailyLimit:           limit,
		UsedToday:            used,
		Remaining:            remaining,
		ResponseBuffer:       buffer,
		AvailableForOutbound: remaining - buffer,
		HealthStatus:         entry.HealthStatus,
	}, nil
}

// classify maps rolling bounce and complaint rates (percentages) to a
// health status. Critical takes precedence over warning.
func (s *Service) classify(bouncePct, complaintPct float64) domain.HealthStatus {
	if bouncePct > s.cfg.BounceCriticalPct || complaintPct > s.cfg.ComplaintCriticalPct {
		return domain.HealthCritical
	}
	if bouncePct > s.cfg.BounceWarningPct || complaintPct > s.cfg.ComplaintWarningPct {
		return domain.HealthWarning
	}
	return domain.HealthGood
}

// UpdateHealth recomputes a resource's rolling bounce and complaint
// rates from send history and reclassifies it. Reclassification is
// idempotent and runs both ways, so a resource recovers to good once
// its metrics improve. Degradations raise an alert log entry.
func (s *Service) UpdateHealth(ctx context.Context, resourceID string) (domain.HealthStatus, error) {
	entry, err := s.repo.GetByID(ctx, resourceID)
	if err != nil {
		return "", fmt.Errorf("loading resource %s: %w", resourceID, err)
	}
	if entry == nil {
		return "", ErrNotFound
	}

	since := s.now().UTC().AddDate(0, 0, -s.cfg.RollingWindowDays)
	sends, bounces, complaints, err := s.repo.RollingWindow(ctx, resourceID, since)
	if err != nil {
		return "", fmt.Errorf("reading send history for %s: %w", resourceID, err)
	}

	var bouncePct, complaintPct float64
	if sends > 0 {
		bouncePct = float64(bounces) / float64(sends) * 100
		complaintPct = float64(complaints) / float64(sends) * 100
	}

	health := s.classify(bouncePct, complaintPct)
	limit := s.dailyLimitFor(health)

	if err := s.repo.UpdateHealth(ctx, resourceID, health, limit, sends, bounces, complaints); err != nil {
		return "", fmt.Errorf("persisting health for %s: %w", resourceID, err)
	}

	if health != entry.HealthStatus {
		fields := []interface{}{
			"resource_id", resourceID,
			"identifier", entry.Identifier,
			"from", string(entry.HealthStatus),
			"to", string(health),
			"bounce_pct", fmt.Sprintf("%.2f", bouncePct),
			"complaint_pct", fmt.Sprintf("%.2f", complaintPct),
		}
		switch health {
		case domain.HealthCritical:
			logger.Error("resource degraded to critical, sending paused", fields...)
		case domain.HealthWarning:
			logger.Warn("resource degraded to warning", fields...)
		default:
			logger.Info("resource recovered", fields...)
		}
	}

	return health, nil
}

// UpdateAllHealth runs UpdateHealth across every non-retired resource.
// Individual failures are logged and skipped so one bad row cannot
// stall the whole pass.
func (s *Service) UpdateAllHealth(ctx context.Context) error {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}
	for _, id := range ids {
		if _, err := s.UpdateHealth(ctx, id); err != nil {
			logger.Warn("health recompute failed", "resource_id", id, "error", err.Error())
		}
	}
	return nil
}

// SelectBestResource picks, among the tenant's active resources that
// are not critical and still have outbound budget, the one with the
// most remaining outbound capacity. Ties go to the higher reputation
// score.
func (s *Service) SelectBestResource(ctx context.Context, tenantID string) (*domain.ResourceEntry, error) {
	entries, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing resources for tenant %s: %w", tenantID, err)
	}

	var best *domain.ResourceEntry
	bestAvail := 0
	for i := range entries {
		e := &entries[i]
		if e.HealthStatus == domain.HealthCritical {
			continue
		}
		c, err := s.GetCapacity(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if c.AvailableForOutbound <= 0 {
			continue
		}
		if best == nil || c.AvailableForOutbound > bestAvail ||
			(c.AvailableForOutbound == bestAvail && e.ReputationScore > best.ReputationScore) {
			best = e
			bestAvail = c.AvailableForOutbound
		}
	}
	if best == nil {
		return nil, ErrNoCapacity
	}
	return best, nil
}

// BufferShortfall reports how many additional resources must be
// provisioned to keep the warm reserve ahead of allocation demand.
// It is recomputed from scratch on every call so any counter drift
// self-heals.
func (s *Service) BufferShortfall(ctx context.Context) (int, error) {
	allocated, err := s.assignments.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting active assignments: %w", err)
	}
	available, err := s.repo.CountAvailable(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting available resources: %w", err)
	}
	warming, err := s.repo.CountWarming(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting warming resources: %w", err)
	}

	required := int(math.Ceil(float64(allocated) * s.cfg.BufferRatio))
	shortfall := required - available - warming
	if shortfall < 0 {
		shortfall = 0
	}

	logger.Info("buffer check",
		"allocated", allocated,
		"available", available,
		"warming", warming,
		"required", required,
		"shortfall", shortfall,
	)
	return shortfall, nil
}

// RecordSendOutcome appends a delivery fact to the resource's send
// history. Outcomes accumulate into today's usage and the rolling
// health window; classification itself waits for the next health pass.
func (s *Service) RecordSendOutcome(ctx context.Context, resourceID string, outcome domain.SendOutcome) error {
	switch outcome {
	case domain.OutcomeDelivered, domain.OutcomeBounced, domain.OutcomeComplaint:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}

	entry, err := s.repo.GetByID(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("loading resource %s: %w", resourceID, err)
	}
	if entry == nil {
		return ErrNotFound
	}
	if err := s.repo.RecordSendEvent(ctx, resourceID, outcome, s.now().UTC()); err != nil {
		return fmt.Errorf("recording outcome for %s: %w", resourceID, err)
	}
	return nil
}
