package event

import (
	"context"
	"log/slog"
)

const TopicStockChanged = "inventory.stock-changed"

// StockChangedEvent is emitted through the outbox whenever an update changes a
// product's stock quantity.
type StockChangedEvent struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	OldStock  int    `json:"old_stock"`
	NewStock  int    `json:"new_stock"`
	ChangedBy string `json:"changed_by"`
}

func (s *Service) handleStockChangedEvent(ctx context.Context, ev StockChangedEvent) error {
	s.logger.InfoContext(ctx, "handling stock changed event", slog.Any("event", ev))
	return nil
}
