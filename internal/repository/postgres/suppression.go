package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/service/suppression"
)

// SuppressionRepo implements suppression.Repository against PostgreSQL.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

// Lookup is the admission-path point read. A missing entry is
// (nil, nil).
func (r *SuppressionRepo) Lookup(ctx context.Context, tenantID, email string) (*domain.Suppression, error) {
	var s domain.Suppression
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, email, reason, created_at
		FROM suppressions
		WHERE tenant_id = $1 AND email = $2
	`, tenantID, email).Scan(&s.ID, &s.TenantID, &s.Email, &s.Reason, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup suppression: %w", err)
	}
	return &s, nil
}

// Suppress inserts an entry; an existing (tenant, email) pair is left
// untouched so the original reason survives.
func (r *SuppressionRepo) Suppress(ctx context.Context, s *domain.Suppression) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppressions (id, tenant_id, email, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (tenant_id, email) DO NOTHING
	`, s.ID, s.TenantID, s.Email, s.Reason)
	if err != nil {
		return fmt.Errorf("suppress: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Remove(ctx context.Context, tenantID, email string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM suppressions WHERE tenant_id = $1 AND email = $2`,
		tenantID, email,
	)
	if err != nil {
		return fmt.Errorf("remove suppression: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return suppression.ErrNotFound
	}
	return nil
}

func (r *SuppressionRepo) List(ctx context.Context, tenantID string, f suppression.ListFilter) ([]domain.Suppression, int, error) {
	where := `tenant_id = $1
		AND ($2 = '' OR reason = $2)
		AND ($3 = '' OR email LIKE '%' || $3 || '%')`

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suppressions WHERE `+where,
		tenantID, f.Reason, f.Search,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppressions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, email, reason, created_at
		FROM suppressions
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, tenantID, f.Reason, f.Search, limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suppression
	for rows.Next() {
		var s domain.Suppression
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Email, &s.Reason, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan suppression: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *SuppressionRepo) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suppressions WHERE tenant_id = $1`, tenantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count suppressions: %w", err)
	}
	return n, nil
}
