package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/lead-engine/internal/domain"
)

// ResourceRepo implements resource.Repository against PostgreSQL.
// Send outcomes live in an append-only resource_send_events table;
// usage and health windows are counted from it rather than from
// incrementally maintained counters.
type ResourceRepo struct{ db *sql.DB }

// NewResourceRepo creates a Postgres-backed resource repository.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

const resourceColumns = `id, tenant_id, resource_type, identifier, status,
	health_status, sends_30d, bounces_30d, complaints_30d, daily_limit,
	reputation_score, created_at, updated_at`

func scanResource(row rowScanner) (*domain.ResourceEntry, error) {
	var e domain.ResourceEntry
	err := row.Scan(
		&e.ID, &e.TenantID, &e.ResourceType, &e.Identifier, &e.Status,
		&e.HealthStatus, &e.Sends30d, &e.Bounces30d, &e.Complaints30d, &e.DailyLimit,
		&e.ReputationScore, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create provisions a new sending resource.
func (r *ResourceRepo) Create(ctx context.Context, e *domain.ResourceEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resource_entries (id, tenant_id, resource_type, identifier, status,
			health_status, daily_limit, reputation_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, e.ID, e.TenantID, e.ResourceType, e.Identifier, e.Status,
		e.HealthStatus, e.DailyLimit, e.ReputationScore)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

func (r *ResourceRepo) GetByID(ctx context.Context, id string) (*domain.ResourceEntry, error) {
	e, err := scanResource(r.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resource_entries WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return e, nil
}

func (r *ResourceRepo) ListActive(ctx context.Context, tenantID string) ([]domain.ResourceEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+resourceColumns+` FROM resource_entries
		WHERE tenant_id = $1 AND status = 'active'
		ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active resources: %w", err)
	}
	defer rows.Close()

	var out []domain.ResourceEntry
	for rows.Next() {
		e, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *ResourceRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM resource_entries WHERE status <> 'retired' ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list resource ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan resource id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RollingWindow counts send outcomes since the given instant.
func (r *ResourceRepo) RollingWindow(ctx context.Context, resourceID string, since time.Time) (int, int, int, error) {
	var sends, bounces, complaints int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'bounced'),
			COUNT(*) FILTER (WHERE outcome = 'complaint')
		FROM resource_send_events
		WHERE resource_id = $1 AND occurred_at >= $2
	`, resourceID, since).Scan(&sends, &bounces, &complaints)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("rolling window: %w", err)
	}
	return sends, bounces, complaints, nil
}

func (r *ResourceRepo) UsedToday(ctx context.Context, resourceID string, day time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM resource_send_events
		WHERE resource_id = $1 AND occurred_at::date = $2::date
	`, resourceID, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("used today: %w", err)
	}
	return n, nil
}

func (r *ResourceRepo) UpdateHealth(ctx context.Context, resourceID string, health domain.HealthStatus, dailyLimit, sends, bounces, complaints int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE resource_entries
		SET health_status = $2, daily_limit = $3,
			sends_30d = $4, bounces_30d = $5, complaints_30d = $6,
			updated_at = NOW()
		WHERE id = $1
	`, resourceID, health, dailyLimit, sends, bounces, complaints)
	if err != nil {
		return fmt.Errorf("update resource health: %w", err)
	}
	return nil
}

func (r *ResourceRepo) RecordSendEvent(ctx context.Context, resourceID string, outcome domain.SendOutcome, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resource_send_events (resource_id, outcome, occurred_at)
		VALUES ($1, $2, $3)
	`, resourceID, outcome, at)
	if err != nil {
		return fmt.Errorf("record send event: %w", err)
	}
	return nil
}

func (r *ResourceRepo) CountAvailable(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resource_entries WHERE status = 'active' AND health_status = 'good'`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count available resources: %w", err)
	}
	return n, nil
}

func (r *ResourceRepo) CountWarming(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resource_entries WHERE status = 'warming'`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count warming resources: %w", err)
	}
	return n, nil
}
