package model

import (
	"time"
)

// InventoryLog records one stock-quantity transition for one product. Entries
// are append-only: the application never updates or deletes them, and they are
// retained after the referenced product is deleted.
type InventoryLog struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	OldStock  int       `json:"old_stock"`
	NewStock  int       `json:"new_stock"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
