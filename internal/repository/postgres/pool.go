// Package postgres implements the service repository contracts against
// PostgreSQL using database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/service/allocation"
	"github.com/ignite/lead-engine/internal/service/pool"
)

// PoolRepo implements pool.Repository and allocation.PoolRepository
// against PostgreSQL.
type PoolRepo struct{ db *sql.DB }

// NewPoolRepo creates a Postgres-backed pool repository.
func NewPoolRepo(db *sql.DB) *PoolRepo { return &PoolRepo{db: db} }

const poolColumns = `id, email, first_name, last_name, title, seniority,
	company_name, industry, country, employee_count, confidence,
	email_status, pool_status, is_bounced, is_unsubscribed,
	created_at, updated_at`

func scanPoolEntry(row *sql.Row) (*domain.PoolEntry, error) {
	var e domain.PoolEntry
	err := row.Scan(
		&e.ID, &e.Email, &e.FirstName, &e.LastName, &e.Title, &e.Seniority,
		&e.CompanyName, &e.Industry, &e.Country, &e.EmployeeCount, &e.Confidence,
		&e.EmailStatus, &e.PoolStatus, &e.IsBounced, &e.IsUnsubscribed,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, pool.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Upsert inserts or merges an enrichment record keyed by email. The
// merge keeps the best known value per field: empty incoming strings
// never overwrite stored enrichment, confidence only moves up, and
// pool_status is never touched so lifecycle state survives re-ingestion.
// Concurrent upserts of the same email converge on the one row.
func (r *PoolRepo) Upsert(ctx context.Context, e *domain.PoolEntry) (*domain.PoolEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO pool_entries (id, email, first_name, last_name, title, seniority,
			company_name, industry, country, employee_count, confidence,
			email_status, pool_status, is_bounced, is_unsubscribed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false, false, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			first_name     = COALESCE(NULLIF(EXCLUDED.first_name, ''), pool_entries.first_name),
			last_name      = COALESCE(NULLIF(EXCLUDED.last_name, ''), pool_entries.last_name),
			title          = COALESCE(NULLIF(EXCLUDED.title, ''), pool_entries.title),
			seniority      = COALESCE(NULLIF(EXCLUDED.seniority, ''), pool_entries.seniority),
			company_name   = COALESCE(NULLIF(EXCLUDED.company_name, ''), pool_entries.company_name),
			industry       = COALESCE(NULLIF(EXCLUDED.industry, ''), pool_entries.industry),
			country        = COALESCE(NULLIF(EXCLUDED.country, ''), pool_entries.country),
			employee_count = CASE WHEN EXCLUDED.employee_count > 0 THEN EXCLUDED.employee_count ELSE pool_entries.employee_count END,
			confidence     = GREATEST(EXCLUDED.confidence, pool_entries.confidence),
			email_status   = CASE WHEN EXCLUDED.email_status <> 'unknown' THEN EXCLUDED.email_status ELSE pool_entries.email_status END,
			updated_at     = NOW()
		RETURNING `+poolColumns,
		e.ID, e.Email, e.FirstName, e.LastName, e.Title, e.Seniority,
		e.CompanyName, e.Industry, e.Country, e.EmployeeCount, e.Confidence,
		e.EmailStatus, e.PoolStatus,
	)
	stored, err := scanPoolEntry(row)
	if err != nil {
		return nil, fmt.Errorf("upsert pool entry: %w", err)
	}
	return stored, nil
}

func (r *PoolRepo) GetByID(ctx context.Context, id string) (*domain.PoolEntry, error) {
	return scanPoolEntry(r.db.QueryRowContext(ctx,
		`SELECT `+poolColumns+` FROM pool_entries WHERE id = $1`, id))
}

func (r *PoolRepo) GetByEmail(ctx context.Context, email string) (*domain.PoolEntry, error) {
	return scanPoolEntry(r.db.QueryRowContext(ctx,
		`SELECT `+poolColumns+` FROM pool_entries WHERE email = $1`, email))
}

// MarkBounced sets the permanent platform-wide bounce flag. Running it
// again against an already bounced row changes nothing.
func (r *PoolRepo) MarkBounced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pool_entries
		SET is_bounced = true, pool_status = 'bounced', updated_at = NOW()
		WHERE id = $1 AND is_bounced = false
	`, id)
	if err != nil {
		return fmt.Errorf("mark bounced: %w", err)
	}
	return nil
}

// MarkUnsubscribed sets the permanent platform-wide unsubscribe flag.
func (r *PoolRepo) MarkUnsubscribed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pool_entries
		SET is_unsubscribed = true, pool_status = 'unsubscribed', updated_at = NOW()
		WHERE id = $1 AND is_unsubscribed = false
	`, id)
	if err != nil {
		return fmt.Errorf("mark unsubscribed: %w", err)
	}
	return nil
}

// FindCandidates returns available entries matching the criteria,
// ranked by enrichment confidence with oldest-first tie-break. The
// filter is built dynamically; only set predicates become WHERE
// clauses.
func (r *PoolRepo) FindCandidates(ctx context.Context, c domain.AllocationCriteria, limit int) ([]domain.PoolEntry, error) {
	where := []string{"pool_status = 'available'", "is_bounced = false", "is_unsubscribed = false"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.Industry != nil {
		where = append(where, "industry = "+arg(*c.Industry))
	}
	if c.Country != nil {
		where = append(where, "country = "+arg(*c.Country))
	}
	if c.EmployeeMin != nil {
		where = append(where, "employee_count >= "+arg(*c.EmployeeMin))
	}
	if c.EmployeeMax != nil {
		where = append(where, "employee_count <= "+arg(*c.EmployeeMax))
	}
	if c.Seniority != nil {
		where = append(where, "seniority = "+arg(*c.Seniority))
	}
	if c.TitleContains != nil {
		where = append(where, "title ILIKE "+arg("%"+*c.TitleContains+"%"))
	}
	if len(c.EmailStatuses) > 0 {
		statuses := make([]string, len(c.EmailStatuses))
		for i, s := range c.EmailStatuses {
			statuses[i] = string(s)
		}
		where = append(where, "email_status = ANY("+arg(pq.Array(statuses))+")")
	}

	query := `SELECT ` + poolColumns + `
		FROM pool_entries
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY confidence DESC, created_at ASC
		LIMIT ` + arg(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.PoolEntry
	for rows.Next() {
		var e domain.PoolEntry
		if err := rows.Scan(
			&e.ID, &e.Email, &e.FirstName, &e.LastName, &e.Title, &e.Seniority,
			&e.CompanyName, &e.Industry, &e.Country, &e.EmployeeCount, &e.Confidence,
			&e.EmailStatus, &e.PoolStatus, &e.IsBounced, &e.IsUnsubscribed,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TryClaim attempts an exclusive claim on an available entry. The CTE
// locks the row with FOR UPDATE SKIP LOCKED, so a row another claimant
// holds is skipped instead of waited on and the race loser gets
// ClaimLost immediately.
func (r *PoolRepo) TryClaim(ctx context.Context, poolID string) (allocation.ClaimResult, error) {
	res, err := r.db.ExecContext(ctx, `
		WITH claimed AS (
			SELECT id FROM pool_entries
			WHERE id = $1 AND pool_status = 'available'
			FOR UPDATE SKIP LOCKED
		)
		UPDATE pool_entries
		SET pool_status = 'assigned', updated_at = NOW()
		FROM claimed
		WHERE pool_entries.id = claimed.id
	`, poolID)
	if err != nil {
		return allocation.ClaimLost, fmt.Errorf("claim pool entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return allocation.ClaimLost, fmt.Errorf("claim pool entry: %w", err)
	}
	if n == 0 {
		return allocation.ClaimLost, nil
	}
	return allocation.ClaimWon, nil
}

// ReleaseToPool returns an assigned entry to the available pool.
// Terminal statuses are left alone.
func (r *PoolRepo) ReleaseToPool(ctx context.Context, poolID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pool_entries
		SET pool_status = 'available', updated_at = NOW()
		WHERE id = $1 AND pool_status = 'assigned'
	`, poolID)
	if err != nil {
		return fmt.Errorf("release pool entry: %w", err)
	}
	return nil
}

// MarkConverted permanently retires the entry from the pool.
func (r *PoolRepo) MarkConverted(ctx context.Context, poolID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pool_entries
		SET pool_status = 'converted', updated_at = NOW()
		WHERE id = $1
	`, poolID)
	if err != nil {
		return fmt.Errorf("mark converted: %w", err)
	}
	return nil
}
