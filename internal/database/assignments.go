package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postavka/internal/models"
)

const assignmentColumns = `booking_item_id, vendor_id, status, assigned_at, accepted_at,
                 reject_note, rejected_at, cancel_note, cancel_reason, cancelled_at,
                 updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	var a models.Assignment
	var vendorID sql.NullInt64
	var assignedAt, acceptedAt, rejectedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&a.BookingItemID, &vendorID, &a.Status, &assignedAt, &acceptedAt,
		&a.RejectNote, &rejectedAt, &a.CancelNote, &a.CancelReason, &cancelledAt,
		&a.UpdatedAt, &a.Version,
	)
	if err != nil {
		return nil, err
	}

	if vendorID.Valid {
		a.VendorID = &vendorID.Int64
	}
	if assignedAt.Valid {
		a.AssignedAt = &assignedAt.Time
	}
	if acceptedAt.Valid {
		a.AcceptedAt = &acceptedAt.Time
	}
	if rejectedAt.Valid {
		a.RejectedAt = &rejectedAt.Time
	}
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}
	return &a, nil
}

func (db *DB) GetAssignment(ctx context.Context, bookingItemID int64) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE booking_item_id = ?`
	a, err := scanAssignment(db.QueryRowContext(ctx, query, bookingItemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// checkVendorEligible validates candidate rules against q (a tx or the DB):
// the vendor exists, is not globally disabled and has never rejected this item.
func checkVendorEligible(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, bookingItemID, vendorID int64) error {
	var disabled bool
	err := q.QueryRowContext(ctx, `SELECT is_disabled FROM vendors WHERE id = ?`, vendorID).Scan(&disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCandidate
	}
	if err != nil {
		return fmt.Errorf("failed to check vendor: %w", err)
	}
	if disabled {
		return ErrInvalidCandidate
	}

	var rejections int
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rejection_records WHERE booking_item_id = ? AND vendor_id = ?`,
		bookingItemID, vendorID).Scan(&rejections)
	if err != nil {
		return fmt.Errorf("failed to check rejection records: %w", err)
	}
	if rejections > 0 {
		return ErrInvalidCandidate
	}
	return nil
}

// AssignVendorWithVersion links vendor to the booking item with an optimistic
// version check. Eligibility is re-validated inside the transaction so that a
// concurrent rejection cannot slip an excluded vendor through.
func (db *DB) AssignVendorWithVersion(ctx context.Context, bookingItemID, fromVersion, vendorID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := checkVendorEligible(ctx, tx, bookingItemID, vendorID); err != nil {
		return err
	}

	query := `UPDATE assignments
              SET vendor_id = ?, status = ?, assigned_at = ?, version = version + 1, updated_at = ?
              WHERE booking_item_id = ? AND version = ?`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query, vendorID, models.StatusAssigned, now, now, bookingItemID, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to assign vendor: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	return tx.Commit()
}

// AcceptAssignmentWithVersion moves assigned -> accepted and stamps accepted_at.
func (db *DB) AcceptAssignmentWithVersion(ctx context.Context, bookingItemID, fromVersion int64) error {
	query := `UPDATE assignments
              SET status = ?, accepted_at = ?, version = version + 1, updated_at = ?
              WHERE booking_item_id = ? AND version = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, models.StatusAccepted, now, now, bookingItemID, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to accept assignment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// RejectAssignmentWithVersion moves assigned -> rejected and appends the
// rejection record in the same transaction. The vendor reference stays on the
// assignment row for audit.
func (db *DB) RejectAssignmentWithVersion(ctx context.Context, bookingItemID, fromVersion int64, note string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var vendorID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT vendor_id FROM assignments WHERE booking_item_id = ?`, bookingItemID).Scan(&vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read assignment vendor: %w", err)
	}
	if !vendorID.Valid {
		return ErrInvalidTransition
	}

	now := time.Now()
	query := `UPDATE assignments
              SET status = ?, reject_note = ?, rejected_at = ?, version = version + 1, updated_at = ?
              WHERE booking_item_id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, query, models.StatusRejected, note, now, now, bookingItemID, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to reject assignment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rejection_records (booking_item_id, vendor_id, note, created_at) VALUES (?, ?, ?, ?)`,
		bookingItemID, vendorID.Int64, note, now)
	if err != nil {
		return fmt.Errorf("failed to insert rejection record: %w", err)
	}

	return tx.Commit()
}

// CancelAssignmentWithVersion moves assigned/accepted -> cancelled. No
// rejection record is written: cancellation does not exclude the vendor from
// future candidate lists.
func (db *DB) CancelAssignmentWithVersion(ctx context.Context, bookingItemID, fromVersion int64, note, reason string) error {
	query := `UPDATE assignments
              SET status = ?, cancel_note = ?, cancel_reason = ?, cancelled_at = ?, version = version + 1, updated_at = ?
              WHERE booking_item_id = ? AND version = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, models.StatusCancelled, note, reason, now, now, bookingItemID, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// CancelActiveAssignmentsForBooking forces every active assignment of the
// booking to cancelled in one transaction. Returns ids of affected items.
func (db *DB) CancelActiveAssignmentsForBooking(ctx context.Context, bookingID int64, note, reason string) ([]int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT a.booking_item_id FROM assignments a
         JOIN booking_items bi ON bi.id = a.booking_item_id
         WHERE bi.booking_id = ? AND a.status IN (?, ?)`,
		bookingID, models.StatusAssigned, models.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan assignment id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, id := range ids {
		_, err := tx.ExecContext(ctx,
			`UPDATE assignments
             SET status = ?, cancel_note = ?, cancel_reason = ?, cancelled_at = ?, version = version + 1, updated_at = ?
             WHERE booking_item_id = ?`,
			models.StatusCancelled, note, reason, now, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel assignment %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListEligibleVendors returns vendors allowed for (re)assignment to the item:
// not globally disabled and without a rejection record for this item.
// Ordered by id for deterministic output.
func (db *DB) ListEligibleVendors(ctx context.Context, bookingItemID int64) ([]*models.Vendor, error) {
	query := `SELECT id, name, contact, is_disabled, created_at, updated_at
              FROM vendors v
              WHERE v.is_disabled = 0
                AND NOT EXISTS (
                    SELECT 1 FROM rejection_records r
                    WHERE r.booking_item_id = ? AND r.vendor_id = v.id
                )
              ORDER BY v.id ASC`
	rows, err := db.QueryContext(ctx, query, bookingItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*models.Vendor
	for rows.Next() {
		v := &models.Vendor{}
		err := rows.Scan(&v.ID, &v.Name, &v.Contact, &v.IsDisabled, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// ListRejectionRecords returns the append-only rejection history for an item.
func (db *DB) ListRejectionRecords(ctx context.Context, bookingItemID int64) ([]*models.RejectionRecord, error) {
	query := `SELECT id, booking_item_id, vendor_id, note, created_at
              FROM rejection_records WHERE booking_item_id = ? ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, bookingItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rejection records: %w", err)
	}
	defer rows.Close()

	var records []*models.RejectionRecord
	for rows.Next() {
		r := &models.RejectionRecord{}
		err := rows.Scan(&r.ID, &r.BookingItemID, &r.VendorID, &r.Note, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rejection record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
