package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"postavka/internal/database"
	"postavka/internal/domain"
	"postavka/internal/metrics"
	"postavka/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	TaskNotify    = "notify"
	TaskSheetSync = "sheet_sync"
)

// notifyPayload is persisted in OutboxTask.Payload as JSON.
type notifyPayload struct {
	EventType string          `json:"event_type"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// sheetSyncPayload carries which vendor's settlement sheet to refresh.
type sheetSyncPayload struct {
	VendorID int64 `json:"vendor_id"`
}

// Notifier delivers a notification about an assignment event.
type Notifier interface {
	Notify(ctx context.Context, eventType string, bookingItemID int64, body json.RawMessage) error
}

// SettlementSyncer pushes a vendor's current settlement state to the sheet.
type SettlementSyncer interface {
	SyncVendor(ctx context.Context, vendorID int64) error
}

// OutboxWorker consumes outbox tasks and applies their side effects:
// vendor/operator notifications and settlement sheet refreshes.
type OutboxWorker struct {
	db            *database.DB
	notifier      Notifier
	sheets        SettlementSyncer
	redis         *redis.Client
	dedup         domain.DedupStore
	retryPolicy   RetryPolicy
	queue         chan models.OutboxTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	dedupTTL      time.Duration
	logger        *log.Logger
}

// NewOutboxWorker builds a worker with sane defaults.
func NewOutboxWorker(db *database.DB, notifier Notifier, sheets SettlementSyncer, redisClient *redis.Client, dedup domain.DedupStore, retry RetryPolicy, logger *log.Logger) *OutboxWorker {
	if logger == nil {
		logger = log.Default()
	}

	return &OutboxWorker{
		db:            db,
		notifier:      notifier,
		sheets:        sheets,
		redis:         redisClient,
		dedup:         dedup,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan models.OutboxTask, models.WorkerQueueSize),
		redisQueueKey: "outbox:queue",
		deadLetterKey: "outbox:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		dedupTTL:      models.DefaultDedupTTL * time.Second,
		logger:        logger,
	}
}

// EnqueueNotify persists a notification task and schedules it.
func (w *OutboxWorker) EnqueueNotify(ctx context.Context, eventType string, bookingItemID int64, payload interface{}) error {
	if eventType == "" {
		return errors.New("event type is required")
	}
	if bookingItemID == 0 {
		return errors.New("booking item id is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notify body: %w", err)
	}
	return w.enqueue(ctx, TaskNotify, bookingItemID, notifyPayload{EventType: eventType, Body: body})
}

// EnqueueSheetSync persists a settlement sheet refresh task for the vendor.
func (w *OutboxWorker) EnqueueSheetSync(ctx context.Context, vendorID, bookingItemID int64) error {
	if vendorID == 0 {
		return errors.New("vendor id is required")
	}
	return w.enqueue(ctx, TaskSheetSync, bookingItemID, sheetSyncPayload{VendorID: vendorID})
}

func (w *OutboxWorker) enqueue(ctx context.Context, taskType string, bookingItemID int64, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.OutboxTask{
		TaskType:      taskType,
		BookingItemID: bookingItemID,
		Payload:       string(payloadBytes),
		Status:        "pending",
		CreatedAt:     time.Now(),
	}

	if err := w.db.CreateOutboxTask(ctx, &task); err != nil {
		return fmt.Errorf("persist outbox task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Printf("outbox_worker: redis push failed, fallback to memory queue: %v", err)
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.queue <- task:
	default:
		w.logger.Printf("outbox_worker: in-memory queue full, task %d dropped to polling", task.ID)
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.logger.Printf("outbox_worker: started")
	defer w.logger.Printf("outbox_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingOutboxTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Printf("outbox_worker: fetch pending: %v", err)
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *OutboxWorker) tryLocalQueue() (models.OutboxTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.OutboxTask{}, false
	}
}

func (w *OutboxWorker) tryRedis(ctx context.Context) (models.OutboxTask, bool) {
	if w.redis == nil {
		return models.OutboxTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.OutboxTask{}, false
		}
		w.logger.Printf("outbox_worker: redis BRPOP error: %v", err)
		return models.OutboxTask{}, false
	}
	if len(res) != 2 {
		return models.OutboxTask{}, false
	}
	var task models.OutboxTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Printf("outbox_worker: decode redis task: %v", err)
		return models.OutboxTask{}, false
	}
	return task, true
}

func (w *OutboxWorker) processTask(ctx context.Context, task *models.OutboxTask) {
	if err := w.handleTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateOutboxTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Printf("outbox_worker: mark completed %d: %v", task.ID, err)
	}
}

func (w *OutboxWorker) handleTask(ctx context.Context, task *models.OutboxTask) error {
	switch task.TaskType {
	case TaskNotify:
		payload, err := w.decodeNotify(task.Payload)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return w.handleNotify(ctx, task, payload)
	case TaskSheetSync:
		var payload sheetSyncPayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		if payload.VendorID == 0 {
			return errors.New("vendor id missing")
		}
		return w.sheets.SyncVendor(ctx, payload.VendorID)
	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *OutboxWorker) handleNotify(ctx context.Context, task *models.OutboxTask, payload notifyPayload) error {
	if payload.EventType == "" {
		return errors.New("event type missing")
	}

	// Dedup key covers event type and item so a redelivered task does not
	// double-notify. Dedup failure is not fatal, a duplicate beats silence.
	if w.dedup != nil {
		key := fmt.Sprintf("%s:%d:%d", payload.EventType, task.BookingItemID, task.ID)
		ok, err := w.dedup.MarkSent(ctx, key, w.dedupTTL)
		if err != nil {
			w.logger.Printf("outbox_worker: dedup check failed for task %d: %v", task.ID, err)
		} else if !ok {
			return nil
		}
	}

	return w.notifier.Notify(ctx, payload.EventType, task.BookingItemID, payload.Body)
}

func (w *OutboxWorker) retryOrFail(ctx context.Context, task *models.OutboxTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		if err := w.db.UpdateOutboxTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Printf("outbox_worker: mark failed %d: %v", task.ID, err)
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	metrics.IncOutboxRetry(task.TaskType)
	nextTime := w.retryPolicy.NextRetryAt(time.Now(), attempt)
	if err := w.db.UpdateOutboxTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Printf("outbox_worker: mark retry %d: %v", task.ID, err)
	}
}

func (w *OutboxWorker) decodeNotify(raw string) (notifyPayload, error) {
	var payload notifyPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (w *OutboxWorker) pushRedis(ctx context.Context, task models.OutboxTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *OutboxWorker) pushDeadLetter(ctx context.Context, task *models.OutboxTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Printf("outbox_worker: encode deadletter %d: %v", task.ID, err)
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Printf("outbox_worker: deadletter push %d: %v", task.ID, err)
	}
}
