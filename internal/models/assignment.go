package models

import "time"

type Assignment struct {
	BookingItemID int64      `json:"booking_item_id"`
	VendorID      *int64     `json:"vendor_id"`
	Status        string     `json:"status"` // unassigned, assigned, accepted, rejected, cancelled
	AssignedAt    *time.Time `json:"assigned_at"`
	AcceptedAt    *time.Time `json:"accepted_at"`
	RejectNote    string     `json:"reject_note"`
	RejectedAt    *time.Time `json:"rejected_at"`
	CancelNote    string     `json:"cancel_note"`
	CancelReason  string     `json:"cancel_reason"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int64      `json:"version"`
}

// Active сообщает, связан ли поставщик с позицией в данный момент.
func (a *Assignment) Active() bool {
	return a.Status == StatusAssigned || a.Status == StatusAccepted
}

type RejectionRecord struct {
	ID            int64     `json:"id"`
	BookingItemID int64     `json:"booking_item_id"`
	VendorID      int64     `json:"vendor_id"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
}
