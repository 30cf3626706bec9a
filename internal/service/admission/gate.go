package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/lead-engine/internal/config"
	"github.com/ignite/lead-engine/internal/domain"
)

// PoolReader looks up pool entries. A missing entry is (nil, nil), not
// an error; errors mean storage failed and the gate fails closed.
type PoolReader interface {
	GetByID(ctx context.Context, id string) (*domain.PoolEntry, error)
}

// SuppressionReader checks the tenant's do-not-contact list by
// normalized email. No match is (nil, nil).
type SuppressionReader interface {
	Lookup(ctx context.Context, tenantID, email string) (*domain.Suppression, error)
}

// AssignmentReader returns the most recent assignment binding a pool
// entry to a tenant, regardless of status. None is (nil, nil).
type AssignmentReader interface {
	GetLatest(ctx context.Context, poolID, tenantID string) (*domain.Assignment, error)
}

// TenantReader looks up tenants. A missing tenant is (nil, nil).
type TenantReader interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
}

// RateLimiter atomically checks and increments the tenant's daily
// counter for a channel. The check and increment are one operation so
// two concurrent sends cannot both pass a boundary check.
type RateLimiter interface {
	Allow(ctx context.Context, tenantID string, channel domain.Channel, limit int) (bool, error)
}

// Gate runs the pre-send checklist. Construct one per process and
// share it; all methods are safe for concurrent use.
type Gate struct {
	pools        PoolReader
	suppressions SuppressionReader
	assignments  AssignmentReader
	tenants      TenantReader
	limiter      RateLimiter

	cfg config.AdmissionConfig
	now func() time.Time
}

// NewGate creates an admission gate.
func NewGate(pools PoolReader, suppressions SuppressionReader, assignments AssignmentReader, tenants TenantReader, limiter RateLimiter, cfg config.AdmissionConfig) *Gate {
	return &Gate{
		pools:        pools,
		suppressions: suppressions,
		assignments:  assignments,
		tenants:      tenants,
		limiter:      limiter,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Validate decides whether a contact attempt may proceed right now.
// Stages run in a fixed order and the first failure wins:
//
//  1. global block (missing entry, platform bounce/unsubscribe,
//     terminal pool status, invalid email for email sends)
//  2. tenant suppression
//  3. assignment existence and state
//  4. timing (cooling period, minimum touch gap)
//  5. per-channel daily rate limit (atomic check-and-increment)
//  6. email warmup (tenant account age)
//
// A non-nil error means storage or the counter failed; the returned
// decision is always a denial in that case.
func (g *Gate) Validate(ctx context.Context, poolID, tenantID string, channel domain.Channel) (Decision, error) {
	if !channel.Valid() {
		return deny(BlockInternalError, "unknown channel"), fmt.Errorf("unknown channel %q", channel)
	}

	// Stage 1: global block.
	entry, err := g.pools.GetByID(ctx, poolID)
	if err != nil {
		return deny(BlockInternalError, "pool lookup failed"), fmt.Errorf("pool lookup: %w", err)
	}
	if entry == nil {
		return deny(BlockLeadNotFound, "no pool entry with this id"), nil
	}
	if entry.IsBounced {
		return deny(BlockBouncedGlobally, "lead bounced on a previous send"), nil
	}
	if entry.IsUnsubscribed {
		return deny(BlockUnsubscribedGlobally, "lead unsubscribed platform-wide"), nil
	}
	if entry.PoolStatus.Blocked() {
		return deny(PoolStatusBlock(entry.PoolStatus), fmt.Sprintf("pool status is %s", entry.PoolStatus)), nil
	}
	if channel == domain.ChannelEmail && entry.EmailStatus == domain.EmailInvalid {
		return deny(BlockInvalidEmail, "email address failed verification"), nil
	}

	// Stage 2: tenant suppression.
	sup, err := g.suppressions.Lookup(ctx, tenantID, entry.Email)
	if err != nil {
		return deny(BlockInternalError, "suppression lookup failed"), fmt.Errorf("suppression lookup: %w", err)
	}
	if sup != nil {
		return deny(SuppressedBlock(sup.Reason), "lead is on the tenant suppression list"), nil
	}

	// Stage 3: assignment existence and state.
	a, err := g.assignments.GetLatest(ctx, poolID, tenantID)
	if err != nil {
		return deny(BlockInternalError, "assignment lookup failed"), fmt.Errorf("assignment lookup: %w", err)
	}
	if a == nil || a.Status == domain.AssignmentReleased {
		return deny(BlockNotAssigned, "lead is not assigned to this tenant"), nil
	}
	if a.Status == domain.AssignmentConverted {
		return deny(PoolStatusBlock(domain.PoolConverted), "lead already converted"), nil
	}
	if a.TotalTouches >= a.MaxTouches {
		return deny(BlockMaxTouchesReached, fmt.Sprintf("%d of %d touches used", a.TotalTouches, a.MaxTouches)), nil
	}
	if a.HasReplied && a.ReplyIntent.Negative() {
		return deny(RepliedBlock(a.ReplyIntent), "lead replied asking not to be contacted"), nil
	}

	// Stage 4: timing.
	now := g.now()
	if a.CoolingUntil != nil && now.Before(*a.CoolingUntil) {
		return deny(BlockCoolingPeriod, fmt.Sprintf("cooling until %s", a.CoolingUntil.Format(time.RFC3339))), nil
	}
	minGap := time.Duration(g.cfg.MinTouchGapDays) * 24 * time.Hour
	if a.LastContactedAt != nil && now.Sub(*a.LastContactedAt) < minGap {
		return deny(BlockTooRecent, fmt.Sprintf("last contacted %s ago", now.Sub(*a.LastContactedAt).Round(time.Minute))), nil
	}

	// Stage 5: per-channel daily rate limit. Check-and-increment is one
	// atomic operation in the limiter.
	limit := g.cfg.RateLimits.ForChannel(channel)
	allowed, err := g.limiter.Allow(ctx, tenantID, channel, limit)
	if err != nil {
		return deny(BlockInternalError, "rate limit check failed"), fmt.Errorf("rate limit: %w", err)
	}
	if !allowed {
		return deny(RateLimitBlock(channel), fmt.Sprintf("daily ceiling of %d reached", limit)), nil
	}

	// Stage 6: email warmup.
	if channel == domain.ChannelEmail {
		tenant, err := g.tenants.GetByID(ctx, tenantID)
		if err != nil {
			return deny(BlockInternalError, "tenant lookup failed"), fmt.Errorf("tenant lookup: %w", err)
		}
		if tenant == nil {
			return deny(BlockInternalError, "tenant not found"), fmt.Errorf("tenant %s not found", tenantID)
		}
		if tenant.AccountAgeDays(now) < g.cfg.WarmupMinAgeDays {
			return deny(BlockWarmupNotReady, fmt.Sprintf("account is %d days old, needs %d", tenant.AccountAgeDays(now), g.cfg.WarmupMinAgeDays)), nil
		}
	}

	return allow(), nil
}
