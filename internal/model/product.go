package model

import (
	"time"
)

// Product is a stocked item. Name is unique under case-insensitive comparison
// across all products.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
	Stock     int       `json:"stock"`
	Status    string    `json:"status"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
