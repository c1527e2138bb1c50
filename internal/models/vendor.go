package models

import "time"

type Vendor struct {
	ID         int64     `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Contact    string    `json:"contact" yaml:"contact"`
	IsDisabled bool      `json:"is_disabled" yaml:"is_disabled"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}
