package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/testutil"
	"github.com/chronoshq/chronos/internal/transaction/domain"
)

func newPendingSync(suffix string) *domain.PendingSync {
	return &domain.PendingSync{
		ID:            uuid.Must(uuid.NewV7()),
		TransactionID: fmt.Sprintf("txn-%s", suffix),
		OperationType: domain.OperationTypeCreate,
		EntityType:    "calendar_event",
		EntityID:      "evt-1",
		DBData:        `{"title":"Standup"}`,
		APIData:       `{"summary":"Standup"}`,
		Status:        domain.PendingSyncStatusPending,
	}
}

func TestPostgreSQLPendingSyncRepository_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLPendingSyncRepository(db)
	ctx := context.Background()

	ps := newPendingSync("create")
	require.NoError(t, repo.Create(ctx, ps))

	created, err := repo.GetByTransactionID(ctx, ps.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, ps.ID, created.ID)
	assert.Equal(t, ps.TransactionID, created.TransactionID)
	assert.Equal(t, domain.OperationTypeCreate, created.OperationType)
	assert.Equal(t, ps.EntityType, created.EntityType)
	assert.Equal(t, ps.EntityID, created.EntityID)
	assert.Equal(t, ps.DBData, created.DBData)
	assert.Equal(t, ps.APIData, created.APIData)
	assert.Equal(t, domain.PendingSyncStatusPending, created.Status)
	assert.Equal(t, 0, created.RetryCount)
	assert.Nil(t, created.LastError)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.LastAttemptAt)
	assert.Nil(t, created.CompletedAt)
}

func TestPostgreSQLPendingSyncRepository_Create_DuplicateTransactionID(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLPendingSyncRepository(db)
	ctx := context.Background()

	first := newPendingSync("dup")
	require.NoError(t, repo.Create(ctx, first))

	second := newPendingSync("dup")
	second.DBData = `{"title":"Other"}`
	require.NoError(t, repo.Create(ctx, second))

	existing, err := repo.GetByTransactionID(ctx, first.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, existing.ID)
	assert.Equal(t, first.DBData, existing.DBData)
}

func TestPostgreSQLPendingSyncRepository_GetByTransactionID_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLPendingSyncRepository(db)

	ps, err := repo.GetByTransactionID(context.Background(), "txn-missing")
	assert.Nil(t, ps)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPostgreSQLPendingSyncRepository_GetStalePending(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLPendingSyncRepository(db)
	ctx := context.Background()

	stale := newPendingSync("stale")
	require.NoError(t, repo.Create(ctx, stale))

	completed := newPendingSync("done")
	completed.Status = domain.PendingSyncStatusCompleted
	require.NoError(t, repo.Create(ctx, completed))

	failed := newPendingSync("failed")
	failed.Status = domain.PendingSyncStatusFailed
	require.NoError(t, repo.Create(ctx, failed))

	// Cutoff in the future: all pending rows are stale.
	records, err := repo.GetStalePending(ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, stale.ID, records[0].ID)

	// Cutoff in the past: fresh rows stay inside the grace window.
	records, err = repo.GetStalePending(ctx, time.Now().UTC().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPostgreSQLPendingSyncRepository_MarkCompleted(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLPendingSyncRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	ps := newPendingSync("complete")
	require.NoError(t, repo.Create(ctx, ps))

	require.NoError(t, repo.MarkCompleted(ctx, ps.ID, now))

	updated, err := repo.GetByTransactionID(ctx, ps.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingSyncStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	require.NotNil(t, updated.LastAttemptAt)

	// Completion is terminal.
	err = repo.MarkCompleted(ctx, ps.ID, now)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))
}

func TestPostgreSQLPendingSyncRepository_RecordAttemptFailure(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLPendingSyncRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	ps := newPendingSync("fail")
	require.NoError(t, repo.Create(ctx, ps))

	err := repo.RecordAttemptFailure(ctx, ps.ID, "api unavailable", now, domain.DefaultMaxRetries)
	require.NoError(t, err)

	updated, err := repo.GetByTransactionID(ctx, ps.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingSyncStatusPending, updated.Status)
	assert.Equal(t, 1, updated.RetryCount)
	require.NotNil(t, updated.LastError)
	assert.Equal(t, "api unavailable", *updated.LastError)
	require.NotNil(t, updated.LastAttemptAt)
}

func TestPostgreSQLPendingSyncRepository_RecordAttemptFailure_ExhaustsBudget(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLPendingSyncRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	ps := newPendingSync("exhaust")
	ps.RetryCount = 2
	require.NoError(t, repo.Create(ctx, ps))

	err := repo.RecordAttemptFailure(ctx, ps.ID, "still failing", now, 3)
	require.NoError(t, err)

	updated, err := repo.GetByTransactionID(ctx, ps.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingSyncStatusFailed, updated.Status)
	assert.Equal(t, 3, updated.RetryCount)

	// Failed records accept no further attempts.
	err = repo.RecordAttemptFailure(ctx, ps.ID, "again", now, 3)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))
}
