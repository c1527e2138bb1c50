package domain

import (
	"context"
	"time"

	"postavka/internal/models"
)

type Repository interface {
	GetAssignment(ctx context.Context, bookingItemID int64) (*models.Assignment, error)
	AssignVendorWithVersion(ctx context.Context, bookingItemID, fromVersion, vendorID int64) error
	AcceptAssignmentWithVersion(ctx context.Context, bookingItemID, fromVersion int64) error
	RejectAssignmentWithVersion(ctx context.Context, bookingItemID, fromVersion int64, note string) error
	CancelAssignmentWithVersion(ctx context.Context, bookingItemID, fromVersion int64, note, reason string) error
	CancelActiveAssignmentsForBooking(ctx context.Context, bookingID int64, note, reason string) ([]int64, error)
	ListEligibleVendors(ctx context.Context, bookingItemID int64) ([]*models.Vendor, error)
	ListRejectionRecords(ctx context.Context, bookingItemID int64) ([]*models.RejectionRecord, error)
	CreateBookingItem(ctx context.Context, item *models.BookingItem) error
	GetBookingItem(ctx context.Context, id int64) (*models.BookingItem, error)
	ListItemsNeedingAssignment(ctx context.Context) ([]*models.BookingItem, error)
	CreateOrUpdateVendor(ctx context.Context, vendor *models.Vendor) error
	GetVendor(ctx context.Context, id int64) (*models.Vendor, error)
	GetAllVendors(ctx context.Context) ([]*models.Vendor, error)
	SetVendorDisabled(ctx context.Context, id int64, disabled bool) error
	SetSupplied(ctx context.Context, bookingItemID int64, supplied bool) (*models.SupplyRecord, error)
	MarkVerified(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error)
	GetSupplyRecord(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error)
	MarkSettled(ctx context.Context, bookingItemID int64) (*models.SettlementEntry, error)
	GetSettlementEntry(ctx context.Context, bookingItemID int64) (*models.SettlementEntry, error)
	GetSettlementRows(ctx context.Context, vendorID int64, from, to time.Time, includeUnverified bool) ([]*models.SettlementRow, error)
	CreateOutboxTask(ctx context.Context, task *models.OutboxTask) error
	GetPendingOutboxTasks(ctx context.Context, limit int) ([]models.OutboxTask, error)
	UpdateOutboxTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// DedupStore suppresses duplicate notification sends across worker restarts.
type DedupStore interface {
	MarkSent(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ClearSent(ctx context.Context, key string) error
}

type SheetsWriter interface {
	ReplaceSettlementSheet(ctx context.Context, summary *models.SettlementSummary) error
	AppendSettlementRow(ctx context.Context, vendor *models.Vendor, row *models.SettlementRow) error
}

type OutboxWorker interface {
	EnqueueNotify(ctx context.Context, eventType string, bookingItemID int64, payload interface{}) error
	EnqueueSheetSync(ctx context.Context, vendorID, bookingItemID int64) error
}

type AssignmentService interface {
	GetAssignment(ctx context.Context, bookingItemID int64) (*models.Assignment, error)
	ListCandidates(ctx context.Context, bookingItemID int64) ([]*models.Vendor, error)
	Assign(ctx context.Context, bookingItemID, vendorID int64) (*models.Assignment, error)
	Reassign(ctx context.Context, bookingItemID, vendorID int64) (*models.Assignment, error)
	Accept(ctx context.Context, bookingItemID int64) (*models.Assignment, error)
	Reject(ctx context.Context, bookingItemID int64, note string) (*models.Assignment, error)
	Cancel(ctx context.Context, bookingItemID int64, note, reason string) (*models.Assignment, error)
	CancelBooking(ctx context.Context, bookingID int64, note, reason string) ([]int64, error)
}

type FulfillmentService interface {
	SetSupplied(ctx context.Context, bookingItemID int64, supplied bool) (*models.SupplyRecord, error)
	MarkVerified(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error)
	GetSupplyRecord(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error)
}

type SettlementService interface {
	ComputeSummary(ctx context.Context, vendorID int64, period string, includeUnverified bool) (*models.SettlementSummary, error)
	MarkSettled(ctx context.Context, bookingItemID int64) (*models.SettlementEntry, error)
}
