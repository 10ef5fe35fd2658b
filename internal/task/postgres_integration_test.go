//go:build integration
// +build integration

package task

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/testutil"
)

// createUser inserts an account row to satisfy the tasks foreign key.
func createUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash) VALUES ($1, 'x') RETURNING id`,
		email).Scan(&id)
	require.NoError(t, err, "seeding user should succeed")
	return id
}

func TestPostgresStore_CreateAndGet_Integration(t *testing.T) {
	dbContainer, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewPostgres(dbContainer.Pool, log.NewNop())
	ctx := context.Background()
	userID := createUser(t, dbContainer.Pool, "create@example.com")

	created, err := store.Create(ctx, userID, "write report", "quarterly numbers")
	require.NoError(t, err, "Create should not return error")
	require.NotNil(t, created)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "write report", created.Title)
	assert.Equal(t, StatusPending, created.Status)
	assert.NotZero(t, created.CreatedAt)

	got, err := store.Get(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, "quarterly numbers", got.Description)
}

func TestPostgresStore_EmptyTitle_Integration(t *testing.T) {
	dbContainer, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewPostgres(dbContainer.Pool, log.NewNop())
	userID := createUser(t, dbContainer.Pool, "empty@example.com")

	_, err := store.Create(context.Background(), userID, "   ", "")
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestPostgresStore_ListOrder_Integration(t *testing.T) {
	dbContainer, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewPostgres(dbContainer.Pool, log.NewNop())
	ctx := context.Background()
	userID := createUser(t, dbContainer.Pool, "list@example.com")

	for i := 1; i <= 5; i++ {
		_, err := store.Create(ctx, userID, fmt.Sprintf("task %d", i), "")
		require.NoError(t, err)
	}

	tasks, err := store.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tasks, 5)
	for i, task := range tasks {
		assert.Equal(t, fmt.Sprintf("task %d", i+1), task.Title, "list should be in creation order")
	}
}

func TestPostgresStore_UpdateAndComplete_Integration(t *testing.T) {
	dbContainer, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewPostgres(dbContainer.Pool, log.NewNop())
	ctx := context.Background()
	userID := createUser(t, dbContainer.Pool, "update@example.com")

	created, err := store.Create(ctx, userID, "old title", "")
	require.NoError(t, err)

	newTitle := "new title"
	newDesc := "with details"
	updated, err := store.Update(ctx, userID, created.ID, Update{Title: &newTitle, Description: &newDesc})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "with details", updated.Description)
	assert.Equal(t, StatusPending, updated.Status, "update without status should leave it pending")

	completed, err := store.Complete(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, "new title", completed.Title, "complete should not touch other fields")
}

func TestPostgresStore_Ownership_Integration(t *testing.T) {
	dbContainer, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewPostgres(dbContainer.Pool, log.NewNop())
	ctx := context.Background()
	owner := createUser(t, dbContainer.Pool, "owner@example.com")
	intruder := createUser(t, dbContainer.Pool, "intruder@example.com")

	created, err := store.Create(ctx, owner, "private", "")
	require.NoError(t, err)

	_, err = store.Get(ctx, intruder, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = store.Complete(ctx, intruder, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = store.Delete(ctx, intruder, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Owner still sees the task unchanged.
	got, err := store.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestPostgresStore_Delete_Integration(t *testing.T) {
	dbContainer, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewPostgres(dbContainer.Pool, log.NewNop())
	ctx := context.Background()
	userID := createUser(t, dbContainer.Pool, "delete@example.com")

	created, err := store.Create(ctx, userID, "doomed", "")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, userID, created.ID))

	_, err = store.Get(ctx, userID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, userID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound, "deleting twice should report not found")
}
