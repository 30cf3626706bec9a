package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/service/allocation"
	"github.com/ignite/lead-engine/internal/service/pool"
)

func setupPoolRepo(t *testing.T) (*PoolRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPoolRepo(db), mock
}

func poolRow(id, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "first_name", "last_name", "title", "seniority",
		"company_name", "industry", "country", "employee_count", "confidence",
		"email_status", "pool_status", "is_bounced", "is_unsubscribed",
		"created_at", "updated_at",
	}).AddRow(id, email, "Jane", "Doe", "VP Sales", "vp",
		"Acme", "saas", "US", 120, 0.92,
		"verified", "available", false, false, now, now)
}

func TestPoolRepo_GetByID(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM pool_entries WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(poolRow("p1", "jane@acme.com"))

	e, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.com", e.Email)
	assert.Equal(t, domain.PoolAvailable, e.PoolStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRepo_GetByID_NotFound(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM pool_entries WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, pool.ErrNotFound)
}

func TestPoolRepo_Upsert_MergesOnEmailConflict(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	mock.ExpectQuery(`INSERT INTO pool_entries .+ ON CONFLICT \(email\) DO UPDATE SET`).
		WillReturnRows(poolRow("p1", "jane@acme.com"))

	stored, err := repo.Upsert(context.Background(), &domain.PoolEntry{
		ID:          "p-new",
		Email:       "jane@acme.com",
		EmailStatus: domain.EmailVerified,
		PoolStatus:  domain.PoolAvailable,
	})
	require.NoError(t, err)
	// The stored row keeps the original id when the email already existed.
	assert.Equal(t, "p1", stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRepo_MarkBounced_OnlyTouchesUnflaggedRows(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	mock.ExpectExec(`UPDATE pool_entries\s+SET is_bounced = true, pool_status = 'bounced'.+WHERE id = \$1 AND is_bounced = false`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkBounced(context.Background(), "p1"))

	// Second call matches zero rows and still succeeds.
	mock.ExpectExec(`UPDATE pool_entries\s+SET is_bounced = true`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkBounced(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRepo_TryClaim(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	mock.ExpectExec(`WITH claimed AS \(\s*SELECT id FROM pool_entries\s+WHERE id = \$1 AND pool_status = 'available'\s+FOR UPDATE SKIP LOCKED`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := repo.TryClaim(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, allocation.ClaimWon, result)
}

func TestPoolRepo_TryClaim_LostRace(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	// Zero affected rows: entry already claimed or locked elsewhere.
	mock.ExpectExec(`WITH claimed AS`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := repo.TryClaim(context.Background(), "p1")
	require.NoError(t, err, "losing a race is not an error")
	assert.Equal(t, allocation.ClaimLost, result)
}

func TestPoolRepo_ReleaseToPool_OnlyFromAssigned(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	mock.ExpectExec(`UPDATE pool_entries\s+SET pool_status = 'available'.+WHERE id = \$1 AND pool_status = 'assigned'`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseToPool(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRepo_FindCandidates_BuildsFilter(t *testing.T) {
	repo, mock := setupPoolRepo(t)

	industry := "saas"
	min := 50
	criteria := domain.AllocationCriteria{
		Industry:    &industry,
		EmployeeMin: &min,
	}

	mock.ExpectQuery(`SELECT .+ FROM pool_entries\s+WHERE pool_status = 'available' AND is_bounced = false AND is_unsubscribed = false AND industry = \$1 AND employee_count >= \$2\s+ORDER BY confidence DESC, created_at ASC\s+LIMIT \$3`).
		WithArgs("saas", 50, 10).
		WillReturnRows(poolRow("p1", "jane@acme.com"))

	entries, err := repo.FindCandidates(context.Background(), criteria, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1", entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
