package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postavka/internal/models"
)

// MarkSettled records the one-way settlement fact. Requires the assignment to
// be accepted; a second call reports ErrAlreadySettled which the service layer
// treats as a retry-safe no-op.
func (db *DB) MarkSettled(ctx context.Context, bookingItemID int64) (*models.SettlementEntry, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	var vendorID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT status, vendor_id FROM assignments WHERE booking_item_id = ?`, bookingItemID).
		Scan(&status, &vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment: %w", err)
	}
	if status != models.StatusAccepted || !vendorID.Valid {
		return nil, ErrInvalidTransition
	}

	var settled bool
	err = tx.QueryRowContext(ctx,
		`SELECT settled FROM settlement_entries WHERE booking_item_id = ?`, bookingItemID).Scan(&settled)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read settlement entry: %w", err)
	}
	if settled {
		return nil, ErrAlreadySettled
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
        INSERT INTO settlement_entries (booking_item_id, vendor_id, settled, settled_at, created_at)
        VALUES (?, ?, 1, ?, ?)
        ON CONFLICT(booking_item_id) DO UPDATE SET
            settled = 1,
            settled_at = excluded.settled_at
    `, bookingItemID, vendorID.Int64, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark settled: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetSettlementEntry(ctx, bookingItemID)
}

func (db *DB) GetSettlementEntry(ctx context.Context, bookingItemID int64) (*models.SettlementEntry, error) {
	query := `SELECT booking_item_id, vendor_id, settled, settled_at, created_at
              FROM settlement_entries WHERE booking_item_id = ?`
	var entry models.SettlementEntry
	var settledAt sql.NullTime
	err := db.QueryRowContext(ctx, query, bookingItemID).Scan(
		&entry.BookingItemID, &entry.VendorID, &entry.Settled, &settledAt, &entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement entry: %w", err)
	}
	if settledAt.Valid {
		entry.SettledAt = &settledAt.Time
	}
	return &entry, nil
}

// GetSettlementRows selects the vendor's accepted items with event dates in
// [from, to] joined with supply and settlement facts. When includeUnverified
// is false, items without a verification timestamp are filtered out.
func (db *DB) GetSettlementRows(ctx context.Context, vendorID int64, from, to time.Time, includeUnverified bool) ([]*models.SettlementRow, error) {
	query := `SELECT bi.id, bi.booking_id, bi.item_id, bi.item_name, bi.quantity,
                     bi.unit_price_cents, bi.total_price_cents, date(bi.event_date), bi.created_at,
                     COALESCE(sr.supplied, 0), sr.supplied_at, sr.verified_at,
                     COALESCE(se.settled, 0), se.settled_at
              FROM booking_items bi
              JOIN assignments a ON a.booking_item_id = bi.id
              LEFT JOIN supply_records sr ON sr.booking_item_id = bi.id
              LEFT JOIN settlement_entries se ON se.booking_item_id = bi.id
              WHERE a.vendor_id = ? AND a.status = ?
                AND date(bi.event_date) >= ? AND date(bi.event_date) <= ?
              ORDER BY bi.booking_id ASC, bi.id ASC`
	rows, err := db.QueryContext(ctx, query, vendorID, models.StatusAccepted,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement rows: %w", err)
	}
	defer rows.Close()

	var result []*models.SettlementRow
	for rows.Next() {
		r := &models.SettlementRow{}
		var dateStr string
		var suppliedAt, verifiedAt, settledAt sql.NullTime
		err := rows.Scan(
			&r.Item.ID, &r.Item.BookingID, &r.Item.ItemID, &r.Item.ItemName, &r.Item.Quantity,
			&r.Item.UnitPriceCents, &r.Item.TotalPriceCents, &dateStr, &r.Item.CreatedAt,
			&r.Supplied, &suppliedAt, &verifiedAt,
			&r.Settled, &settledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		r.Item.EventDate, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event date %s: %w", dateStr, err)
		}
		if suppliedAt.Valid {
			r.SuppliedAt = &suppliedAt.Time
		}
		if verifiedAt.Valid {
			r.VerifiedAt = &verifiedAt.Time
		}
		if settledAt.Valid {
			r.SettledAt = &settledAt.Time
		}

		if !includeUnverified && r.VerifiedAt == nil {
			continue
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
