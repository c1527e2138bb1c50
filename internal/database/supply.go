package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postavka/internal/models"
)

// SetSupplied toggles the physical supply fact for an item. Independent of
// assignment status. Turning it off clears supplied_at; verified_at is an
// upstream fact and survives the toggle.
func (db *DB) SetSupplied(ctx context.Context, bookingItemID int64, supplied bool) (*models.SupplyRecord, error) {
	now := time.Now()
	var suppliedAt any
	if supplied {
		suppliedAt = now
	}

	query := `
        INSERT INTO supply_records (booking_item_id, supplied, supplied_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(booking_item_id) DO UPDATE SET
            supplied = excluded.supplied,
            supplied_at = excluded.supplied_at,
            updated_at = excluded.updated_at
    `
	_, err := db.ExecContext(ctx, query, bookingItemID, supplied, suppliedAt, now)
	if err != nil {
		return nil, fmt.Errorf("failed to set supplied: %w", err)
	}

	return db.GetSupplyRecord(ctx, bookingItemID)
}

// MarkVerified stamps the verification fact reported by the upstream actor.
func (db *DB) MarkVerified(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error) {
	now := time.Now()
	query := `
        INSERT INTO supply_records (booking_item_id, supplied, verified_at, updated_at)
        VALUES (?, 0, ?, ?)
        ON CONFLICT(booking_item_id) DO UPDATE SET
            verified_at = excluded.verified_at,
            updated_at = excluded.updated_at
    `
	_, err := db.ExecContext(ctx, query, bookingItemID, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark verified: %w", err)
	}

	return db.GetSupplyRecord(ctx, bookingItemID)
}

func (db *DB) GetSupplyRecord(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error) {
	query := `SELECT booking_item_id, supplied, supplied_at, verified_at, updated_at
              FROM supply_records WHERE booking_item_id = ?`
	var rec models.SupplyRecord
	var suppliedAt, verifiedAt sql.NullTime
	err := db.QueryRowContext(ctx, query, bookingItemID).Scan(
		&rec.BookingItemID, &rec.Supplied, &suppliedAt, &verifiedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supply record: %w", err)
	}
	if suppliedAt.Valid {
		rec.SuppliedAt = &suppliedAt.Time
	}
	if verifiedAt.Valid {
		rec.VerifiedAt = &verifiedAt.Time
	}
	return &rec, nil
}
