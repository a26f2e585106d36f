package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/inventory-service/internal/model"
	"github.com/tuanvumaihuynh/inventory-service/internal/storage/db"
)

type CreateInventoryLogParams struct {
	ProductID int64
	OldStock  int
	NewStock  int
	ChangedBy string
}

type InventoryLogRepository interface {
	WithDB(db db.DB) InventoryLogRepository
	CreateInventoryLog(ctx context.Context, params CreateInventoryLogParams) (model.InventoryLog, error)
	ListInventoryLogsByProduct(ctx context.Context, productID int64) ([]model.InventoryLog, error)
}

type inventoryLogRepository struct {
	db db.DB
}

func NewInventoryLogRepository(db db.DB) InventoryLogRepository {
	return &inventoryLogRepository{db: db}
}

func (r inventoryLogRepository) WithDB(db db.DB) InventoryLogRepository {
	return &inventoryLogRepository{db: db}
}

func (r inventoryLogRepository) CreateInventoryLog(ctx context.Context, params CreateInventoryLogParams) (model.InventoryLog, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO inventory_logs (product_id, old_stock, new_stock, changed_by)
		VALUES (@product_id, @old_stock, @new_stock, @changed_by)
		RETURNING id, product_id, old_stock, new_stock, changed_by, changed_at;
	`, pgx.NamedArgs{
		"product_id": params.ProductID,
		"old_stock":  params.OldStock,
		"new_stock":  params.NewStock,
		"changed_by": params.ChangedBy,
	})

	entry, err := scanInventoryLog(row)
	if err != nil {
		return model.InventoryLog{}, fmt.Errorf("create inventory log: %w", err)
	}

	return entry, nil
}

func (r inventoryLogRepository) ListInventoryLogsByProduct(ctx context.Context, productID int64) ([]model.InventoryLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, old_stock, new_stock, changed_by, changed_at
		FROM inventory_logs
		WHERE product_id = @product_id
		ORDER BY changed_at DESC, id DESC;
	`, pgx.NamedArgs{"product_id": productID})
	if err != nil {
		return nil, fmt.Errorf("list inventory logs: %w", err)
	}
	defer rows.Close()

	entries := make([]model.InventoryLog, 0)
	for rows.Next() {
		entry, err := scanInventoryLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory log: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory logs: %w", err)
	}

	return entries, nil
}

func scanInventoryLog(row pgx.Row) (model.InventoryLog, error) {
	var e model.InventoryLog
	err := row.Scan(
		&e.ID,
		&e.ProductID,
		&e.OldStock,
		&e.NewStock,
		&e.ChangedBy,
		&e.ChangedAt,
	)
	return e, err
}
