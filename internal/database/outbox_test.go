package database

import (
	"context"
	"testing"
	"time"

	"postavka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxTaskFlow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	task := &models.OutboxTask{
		TaskType:      "notify",
		BookingItemID: 100,
		Payload:       `{"event":"assignment_assigned"}`,
		Status:        "pending",
	}
	require.NoError(t, db.CreateOutboxTask(ctx, task))
	assert.NotZero(t, task.ID)

	pending, err := db.GetPendingOutboxTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "notify", pending[0].TaskType)

	// Completed tasks drop out of the pending set.
	require.NoError(t, db.UpdateOutboxTaskStatus(ctx, task.ID, "completed", "", nil))
	pending, err = db.GetPendingOutboxTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxRetryScheduling(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	task := &models.OutboxTask{
		TaskType:      "sheet_sync",
		BookingItemID: 100,
		Payload:       "{}",
		Status:        "pending",
	}
	require.NoError(t, db.CreateOutboxTask(ctx, task))

	// Scheduled into the future: not yet due.
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateOutboxTaskStatus(ctx, task.ID, "retry", "sheets unavailable", &future))

	pending, err := db.GetPendingOutboxTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Once the retry time passes the task is picked up again, with the
	// attempt counted and the error preserved.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.UpdateOutboxTaskStatus(ctx, task.ID, "retry", "sheets unavailable", &past))

	pending, err = db.GetPendingOutboxTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "sheets unavailable", *pending[0].LastError)
}

func TestOutboxFailedTerminal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	task := &models.OutboxTask{
		TaskType:      "notify",
		BookingItemID: 100,
		Payload:       "{}",
		Status:        "pending",
	}
	require.NoError(t, db.CreateOutboxTask(ctx, task))

	require.NoError(t, db.UpdateOutboxTaskStatus(ctx, task.ID, "failed", "max retries exceeded", nil))

	pending, err := db.GetPendingOutboxTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
