package models

import "time"

// OutboxTask represents a queued side-effect job (notification, sheet sync).
type OutboxTask struct {
	ID            int64      `json:"id"`
	TaskType      string     `json:"task_type"`
	BookingItemID int64      `json:"booking_item_id"`
	Payload       string     `json:"payload"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastError     *string    `json:"last_error"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at"`
	NextRetryAt   *time.Time `json:"next_retry_at"`
}
