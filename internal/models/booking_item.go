package models

import "time"

type BookingItem struct {
	ID              int64     `json:"id" yaml:"id"`
	BookingID       int64     `json:"booking_id" yaml:"booking_id"`
	ItemID          int64     `json:"item_id" yaml:"item_id"`
	ItemName        string    `json:"item_name" yaml:"item_name"`
	Quantity        int64     `json:"quantity" yaml:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents" yaml:"unit_price_cents"`
	TotalPriceCents int64     `json:"total_price_cents" yaml:"total_price_cents"`
	EventDate       time.Time `json:"event_date" yaml:"event_date"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}
