package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, logger: logger}
	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func (db *DB) createTables() error {
	queries := []string{
		// Справочник поставщиков
		`CREATE TABLE IF NOT EXISTS vendors (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            contact TEXT,
            is_disabled BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Позиции заказов, импортированные из каталога
		`CREATE TABLE IF NOT EXISTS booking_items (
            id INTEGER PRIMARY KEY,
            booking_id INTEGER NOT NULL,
            item_id INTEGER NOT NULL,
            item_name TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            unit_price_cents INTEGER NOT NULL,
            total_price_cents INTEGER NOT NULL,
            event_date DATETIME NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Назначение поставщика: ровно одна строка на позицию
		`CREATE TABLE IF NOT EXISTS assignments (
            booking_item_id INTEGER PRIMARY KEY,
            vendor_id INTEGER,
            status TEXT NOT NULL DEFAULT 'unassigned',
            assigned_at DATETIME,
            accepted_at DATETIME,
            reject_note TEXT NOT NULL DEFAULT '',
            rejected_at DATETIME,
            cancel_note TEXT NOT NULL DEFAULT '',
            cancel_reason TEXT NOT NULL DEFAULT '',
            cancelled_at DATETIME,
            version INTEGER NOT NULL DEFAULT 1,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Журнал отказов: только добавление, никогда не удаляется
		`CREATE TABLE IF NOT EXISTS rejection_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_item_id INTEGER NOT NULL,
            vendor_id INTEGER NOT NULL,
            note TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS supply_records (
            booking_item_id INTEGER PRIMARY KEY,
            supplied BOOLEAN NOT NULL DEFAULT 0,
            supplied_at DATETIME,
            verified_at DATETIME,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS settlement_entries (
            booking_item_id INTEGER PRIMARY KEY,
            vendor_id INTEGER NOT NULL,
            settled BOOLEAN NOT NULL DEFAULT 0,
            settled_at DATETIME,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Очередь отложенных побочных эффектов
		`CREATE TABLE IF NOT EXISTS outbox (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_item_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_vendors_is_disabled ON vendors(is_disabled)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_items_booking_id ON booking_items(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_items_event_date ON booking_items(event_date)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_vendor_id ON assignments(vendor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rejections_item_vendor ON rejection_records(booking_item_id, vendor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_settlement_vendor_id ON settlement_entries(vendor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}
