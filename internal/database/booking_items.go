package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postavka/internal/models"
)

// CreateBookingItem inserts an imported catalog line together with its
// unassigned assignment row in one transaction. Re-importing an existing id
// is a no-op so the catalog sync can run repeatedly.
func (db *DB) CreateBookingItem(ctx context.Context, item *models.BookingItem) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_items WHERE id = ?`, item.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check booking item: %w", err)
	}
	if exists > 0 {
		return nil
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_items (id, booking_id, item_id, item_name, quantity, unit_price_cents, total_price_cents, event_date, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.BookingID, item.ItemID, item.ItemName, item.Quantity,
		item.UnitPriceCents, item.TotalPriceCents, item.EventDate.Format("2006-01-02"), now)
	if err != nil {
		return fmt.Errorf("failed to insert booking item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (booking_item_id, status, version, updated_at) VALUES (?, ?, 1, ?)`,
		item.ID, models.StatusUnassigned, now)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	item.CreatedAt = now
	return tx.Commit()
}

func (db *DB) GetBookingItem(ctx context.Context, id int64) (*models.BookingItem, error) {
	query := `SELECT id, booking_id, item_id, item_name, quantity, unit_price_cents, total_price_cents, date(event_date), created_at
              FROM booking_items WHERE id = ?`
	item, err := scanBookingItem(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking item: %w", err)
	}
	return item, nil
}

func scanBookingItem(row rowScanner) (*models.BookingItem, error) {
	var item models.BookingItem
	var dateStr string
	err := row.Scan(
		&item.ID, &item.BookingID, &item.ItemID, &item.ItemName, &item.Quantity,
		&item.UnitPriceCents, &item.TotalPriceCents, &dateStr, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.EventDate, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event date %s: %w", dateStr, err)
	}
	return &item, nil
}

// ListItemsNeedingAssignment returns items whose assignment is reassignable
// (unassigned, rejected or cancelled), oldest event first.
func (db *DB) ListItemsNeedingAssignment(ctx context.Context) ([]*models.BookingItem, error) {
	query := `SELECT bi.id, bi.booking_id, bi.item_id, bi.item_name, bi.quantity,
                     bi.unit_price_cents, bi.total_price_cents, date(bi.event_date), bi.created_at
              FROM booking_items bi
              JOIN assignments a ON a.booking_item_id = bi.id
              WHERE a.status IN (?, ?, ?)
              ORDER BY bi.event_date ASC, bi.id ASC`
	rows, err := db.QueryContext(ctx, query,
		models.StatusUnassigned, models.StatusRejected, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list items needing assignment: %w", err)
	}
	defer rows.Close()

	var items []*models.BookingItem
	for rows.Next() {
		item, err := scanBookingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
