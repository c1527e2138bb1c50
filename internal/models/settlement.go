package models

import "time"

type SupplyRecord struct {
	BookingItemID int64      `json:"booking_item_id"`
	Supplied      bool       `json:"supplied"`
	SuppliedAt    *time.Time `json:"supplied_at"`
	VerifiedAt    *time.Time `json:"verified_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type SettlementEntry struct {
	BookingItemID int64      `json:"booking_item_id"`
	VendorID      int64      `json:"vendor_id"`
	Settled       bool       `json:"settled"`
	SettledAt     *time.Time `json:"settled_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SettlementRow объединяет позицию заказа с фактами поставки и расчёта
// для отчёта по поставщику.
type SettlementRow struct {
	Item       BookingItem `json:"item"`
	Supplied   bool        `json:"supplied"`
	SuppliedAt *time.Time  `json:"supplied_at"`
	VerifiedAt *time.Time  `json:"verified_at"`
	Settled    bool        `json:"settled"`
	SettledAt  *time.Time  `json:"settled_at"`
}

type BookingGroup struct {
	BookingID  int64           `json:"booking_id"`
	Rows       []SettlementRow `json:"rows"`
	TotalCents int64           `json:"total_cents"`
}

type SettlementSummary struct {
	VendorID            int64          `json:"vendor_id"`
	Period              string         `json:"period"`
	From                time.Time      `json:"from"`
	To                  time.Time      `json:"to"`
	IncludeUnverified   bool           `json:"include_unverified"`
	Settled             []BookingGroup `json:"settled"`
	Unsettled           []BookingGroup `json:"unsettled"`
	SettledTotalCents   int64          `json:"settled_total_cents"`
	UnsettledTotalCents int64          `json:"unsettled_total_cents"`
	GrandTotalCents     int64          `json:"grand_total_cents"`
}
