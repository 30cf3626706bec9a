package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/service/allocation"
)

func setupAssignmentRepo(t *testing.T) (*AssignmentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAssignmentRepo(db), mock
}

func assignmentRow(id string, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "pool_entry_id", "tenant_id", "status", "total_touches",
		"max_touches", "channels_used", "last_contacted_at", "cooling_until",
		"has_replied", "reply_intent", "release_reason", "created_at", "updated_at",
	}).AddRow(id, "p1", "t1", status, 2,
		8, pq.StringArray{"email", "linkedin"}, nil, nil,
		false, nil, nil, now, now)
}

func TestAssignmentRepo_GetLatest(t *testing.T) {
	repo, mock := setupAssignmentRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM assignments\s+WHERE pool_entry_id = \$1 AND tenant_id = \$2\s+ORDER BY created_at DESC\s+LIMIT 1`).
		WithArgs("p1", "t1").
		WillReturnRows(assignmentRow("a1", "active"))

	a, err := repo.GetLatest(context.Background(), "p1", "t1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, domain.AssignmentActive, a.Status)
	assert.Equal(t, []domain.Channel{domain.ChannelEmail, domain.ChannelLinkedIn}, a.ChannelsUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_GetLatest_NoneIsNil(t *testing.T) {
	repo, mock := setupAssignmentRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM assignments`).
		WithArgs("p1", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	a, err := repo.GetLatest(context.Background(), "p1", "t1")
	require.NoError(t, err, "an absent assignment is not an error for the gate")
	assert.Nil(t, a)
}

func TestAssignmentRepo_Create(t *testing.T) {
	repo, mock := setupAssignmentRepo(t)

	mock.ExpectExec(`INSERT INTO assignments`).
		WithArgs("a1", "p1", "t1", "active", 0, 8, pq.StringArray{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.Assignment{
		ID:          "a1",
		PoolEntryID: "p1",
		TenantID:    "t1",
		Status:      domain.AssignmentActive,
		MaxTouches:  8,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_RecordTouch(t *testing.T) {
	repo, mock := setupAssignmentRepo(t)

	contactedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	coolingUntil := contactedAt.AddDate(0, 0, 3)

	mock.ExpectExec(`UPDATE assignments\s+SET total_touches = total_touches \+ 1,\s+channels_used = CASE`).
		WithArgs("a1", "email", contactedAt, coolingUntil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordTouch(context.Background(), "a1", domain.ChannelEmail, contactedAt, coolingUntil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_RecordTouch_MissingAssignment(t *testing.T) {
	repo, mock := setupAssignmentRepo(t)

	mock.ExpectExec(`UPDATE assignments`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RecordTouch(context.Background(), "ghost", domain.ChannelEmail, time.Now(), time.Now())
	assert.ErrorIs(t, err, allocation.ErrNotFound)
}

func TestAssignmentRepo_UpdateStatus(t *testing.T) {
	repo, mock := setupAssignmentRepo(t)

	mock.ExpectExec(`UPDATE assignments\s+SET status = \$2, release_reason = NULLIF\(\$3, ''\)`).
		WithArgs("a1", "released", "tenant requested").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "a1", domain.AssignmentReleased, "tenant requested")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_CountActive(t *testing.T) {
	repo, mock := setupAssignmentRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assignments WHERE status = 'active'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}
