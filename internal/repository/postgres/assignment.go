package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/service/allocation"
)

// AssignmentRepo implements allocation.AssignmentRepository against
// PostgreSQL. It also serves the admission gate's read path and the
// buffer calculation's demand counter.
type AssignmentRepo struct{ db *sql.DB }

// NewAssignmentRepo creates a Postgres-backed assignment repository.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

const assignmentColumns = `id, pool_entry_id, tenant_id, status, total_touches,
	max_touches, channels_used, last_contacted_at, cooling_until,
	has_replied, reply_intent, release_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	var channels pq.StringArray
	var intent, reason sql.NullString
	err := row.Scan(
		&a.ID, &a.PoolEntryID, &a.TenantID, &a.Status, &a.TotalTouches,
		&a.MaxTouches, &channels, &a.LastContactedAt, &a.CoolingUntil,
		&a.HasReplied, &intent, &reason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, c := range channels {
		a.ChannelsUsed = append(a.ChannelsUsed, domain.Channel(c))
	}
	a.ReplyIntent = domain.ReplyIntent(intent.String)
	a.ReleaseReason = reason.String
	return &a, nil
}

func (r *AssignmentRepo) Create(ctx context.Context, a *domain.Assignment) error {
	channels := make(pq.StringArray, len(a.ChannelsUsed))
	for i, c := range a.ChannelsUsed {
		channels[i] = string(c)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assignments (id, pool_entry_id, tenant_id, status, total_touches,
			max_touches, channels_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`, a.ID, a.PoolEntryID, a.TenantID, a.Status, a.TotalTouches, a.MaxTouches, channels)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepo) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, allocation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepo) GetActive(ctx context.Context, poolID, tenantID string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE pool_entry_id = $1 AND tenant_id = $2 AND status = 'active'
	`, poolID, tenantID))
	if err == sql.ErrNoRows {
		return nil, allocation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active assignment: %w", err)
	}
	return a, nil
}

// GetLatest returns the most recent assignment for (poolID, tenantID)
// regardless of status, or (nil, nil) when none exists. The admission
// gate reads history through this.
func (r *AssignmentRepo) GetLatest(ctx context.Context, poolID, tenantID string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE pool_entry_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, poolID, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest assignment: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepo) ListActiveByTenant(ctx context.Context, tenantID string) ([]domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE tenant_id = $1 AND status = 'active'
		ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AssignmentRepo) UpdateStatus(ctx context.Context, id string, status domain.AssignmentStatus, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE assignments
		SET status = $2, release_reason = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1
	`, id, status, reason)
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return allocation.ErrNotFound
	}
	return nil
}

// RecordTouch bumps the touch counter, appends the channel when it is
// new for this assignment and stamps the contact and cooling times.
func (r *AssignmentRepo) RecordTouch(ctx context.Context, id string, channel domain.Channel, contactedAt, coolingUntil time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE assignments
		SET total_touches = total_touches + 1,
			channels_used = CASE
				WHEN $2 = ANY(channels_used) THEN channels_used
				ELSE array_append(channels_used, $2)
			END,
			last_contacted_at = $3,
			cooling_until = $4,
			updated_at = NOW()
		WHERE id = $1
	`, id, string(channel), contactedAt, coolingUntil)
	if err != nil {
		return fmt.Errorf("record touch: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return allocation.ErrNotFound
	}
	return nil
}

func (r *AssignmentRepo) RecordReply(ctx context.Context, id string, intent domain.ReplyIntent) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE assignments
		SET has_replied = true, reply_intent = $2, updated_at = NOW()
		WHERE id = $1
	`, id, string(intent))
	if err != nil {
		return fmt.Errorf("record reply: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return allocation.ErrNotFound
	}
	return nil
}

// CountActive reports current allocation demand for the buffer check.
func (r *AssignmentRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE status = 'active'`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active assignments: %w", err)
	}
	return n, nil
}
