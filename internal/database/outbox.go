package database

import (
	"context"
	"fmt"
	"time"

	"postavka/internal/models"
)

func (db *DB) CreateOutboxTask(ctx context.Context, task *models.OutboxTask) error {
	query := `INSERT INTO outbox (task_type, booking_item_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.TaskType,
		task.BookingItemID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now

	return nil
}

func (db *DB) GetPendingOutboxTasks(ctx context.Context, limit int) ([]models.OutboxTask, error) {
	query := `SELECT id, task_type, booking_item_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM outbox
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending outbox tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.OutboxTask
	for rows.Next() {
		var t models.OutboxTask
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.BookingItemID, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateOutboxTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error {
	var processedAt *time.Time
	if status == "completed" || status == "failed" {
		now := time.Now()
		processedAt = &now
	}

	var errPtr *string
	if lastError != "" {
		errPtr = &lastError
	}

	query := `UPDATE outbox
              SET status = ?, last_error = ?, processed_at = ?, next_retry_at = ?,
                  retry_count = CASE WHEN ? = 'retry' THEN retry_count + 1 ELSE retry_count END
              WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, errPtr, processedAt, nextRetryAt, status, id)
	if err != nil {
		return fmt.Errorf("failed to update outbox task %d: %w", id, err)
	}
	return nil
}
