package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postavka/internal/models"
)

// CreateOrUpdateVendor upserts a registry row, keyed by id. Used by the boot
// seed and by registry sync.
func (db *DB) CreateOrUpdateVendor(ctx context.Context, vendor *models.Vendor) error {
	query := `
        INSERT INTO vendors (id, name, contact, is_disabled, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            contact = excluded.contact,
            is_disabled = excluded.is_disabled,
            updated_at = excluded.updated_at
    `
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		vendor.ID, vendor.Name, vendor.Contact, vendor.IsDisabled, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert vendor: %w", err)
	}
	return nil
}

func (db *DB) GetVendor(ctx context.Context, id int64) (*models.Vendor, error) {
	query := `SELECT id, name, contact, is_disabled, created_at, updated_at FROM vendors WHERE id = ?`
	var v models.Vendor
	err := db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.Contact, &v.IsDisabled, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return &v, nil
}

func (db *DB) GetAllVendors(ctx context.Context) ([]*models.Vendor, error) {
	query := `SELECT id, name, contact, is_disabled, created_at, updated_at FROM vendors ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
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

// SetVendorDisabled toggles the vendor-level flag. Existing accepted
// assignments are not touched; the flag only filters future candidates.
func (db *DB) SetVendorDisabled(ctx context.Context, id int64, disabled bool) error {
	query := `UPDATE vendors SET is_disabled = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, disabled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
