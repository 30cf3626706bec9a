package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/lead-engine/internal/domain"
)

// TenantRepo provides the tenant registry. The admission gate reads
// tenant age through it; GetByID returns (nil, nil) for a missing
// tenant so the gate can fail closed explicitly.
type TenantRepo struct{ db *sql.DB }

// NewTenantRepo creates a Postgres-backed tenant repository.
func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, status, created_at)
		VALUES ($1, $2, $3, NOW())
	`, t.ID, t.Name, t.Status)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

func (r *TenantRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, status, created_at FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
