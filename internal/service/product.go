package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tuanvumaihuynh/inventory-service/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-service/internal/event"
	"github.com/tuanvumaihuynh/inventory-service/internal/model"
	"github.com/tuanvumaihuynh/inventory-service/internal/repository"
	"github.com/tuanvumaihuynh/inventory-service/internal/storage/db"
	"github.com/tuanvumaihuynh/inventory-service/pkg/outbox"
	"github.com/tuanvumaihuynh/inventory-service/pkg/ptr"
)

// DefaultChangedBy is the actor label recorded when a request does not name one.
const DefaultChangedBy = "admin"

type CreateProductParams struct {
	Name     string
	Unit     string
	Category string
	Brand    string
	Stock    int
	Status   string
	Image    string
}

type UpdateProductParams struct {
	ID        int64
	Name      string
	Unit      string
	Category  string
	Brand     string
	Stock     int
	Status    string
	Image     string
	ChangedBy string
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, name string) ([]model.Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
	GetProductHistory(ctx context.Context, id int64) ([]model.InventoryLog, error)
	ImportProducts(ctx context.Context, r io.Reader) (ImportSummary, error)
	ExportProducts(ctx context.Context, w io.Writer) error
}

type productService struct {
	db               db.DB
	productRepo      repository.ProductRepository
	inventoryLogRepo repository.InventoryLogRepository
	outboxMsgRepo    repository.OutboxMsgRepository
}

func NewProductService(
	db db.DB,
	productRepo repository.ProductRepository,
	inventoryLogRepo repository.InventoryLogRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		db:               db,
		productRepo:      productRepo,
		inventoryLogRepo: inventoryLogRepo,
		outboxMsgRepo:    outboxMsgRepo,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	product, err := s.productRepo.CreateProduct(ctx, repository.CreateProductParams{
		Name:     params.Name,
		Unit:     params.Unit,
		Category: params.Category,
		Brand:    params.Brand,
		Stock:    params.Stock,
		Status:   params.Status,
		Image:    params.Image,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return model.Product{}, apperr.ProductNameConflictErr.WrapParent(err)
		}
		return model.Product{}, fmt.Errorf("product repository create product: %w", err)
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

func (s *productService) SearchProducts(ctx context.Context, name string) ([]model.Product, error) {
	products, err := s.productRepo.SearchProductsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("product repository search products: %w", err)
	}

	return products, nil
}

// UpdateProduct overwrites all mutable attributes of one product. When the
// stock quantity actually changes it also appends one inventory log entry and
// one stock-changed outbox message, all in the same transaction as the
// attribute update.
func (s *productService) UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error) {
	changedBy := params.ChangedBy
	if changedBy == "" {
		changedBy = DefaultChangedBy
	}

	var updated model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		productRepo := s.productRepo.WithDB(tx)

		current, err := productRepo.GetProductByID(ctx, params.ID)
		if err != nil {
			return fmt.Errorf("product repository get product: %w", err)
		}

		if _, taken, err := productRepo.FindProductIDByName(ctx, params.Name, params.ID); err != nil {
			return fmt.Errorf("product repository find product id by name: %w", err)
		} else if taken {
			return repository.ErrDuplicateName
		}

		updated, err = productRepo.UpdateProduct(ctx, repository.UpdateProductParams{
			ID:       params.ID,
			Name:     params.Name,
			Unit:     params.Unit,
			Category: params.Category,
			Brand:    params.Brand,
			Stock:    params.Stock,
			Status:   params.Status,
			Image:    params.Image,
		})
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		if current.Stock == params.Stock {
			return nil
		}

		if _, err := s.inventoryLogRepo.
			WithDB(tx).
			CreateInventoryLog(ctx, repository.CreateInventoryLogParams{
				ProductID: params.ID,
				OldStock:  current.Stock,
				NewStock:  params.Stock,
				ChangedBy: changedBy,
			}); err != nil {
			return fmt.Errorf("inventory log repository create inventory log: %w", err)
		}

		ev := event.StockChangedEvent{
			ProductID: params.ID,
			Name:      updated.Name,
			OldStock:  current.Stock,
			NewStock:  params.Stock,
			ChangedBy: changedBy,
		}
		evBytes, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		if err := s.outboxMsgRepo.
			WithDB(tx).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicStockChanged,
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: ptr.New(strconv.FormatInt(params.ID, 10)),
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.Product{}, apperr.ProductNotFoundErr.WrapParent(err)
		case errors.Is(err, repository.ErrDuplicateName):
			return model.Product{}, apperr.ProductNameConflictErr.WrapParent(err)
		}
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	// Inventory log entries are intentionally left in place: the audit trail
	// of a deleted product stays readable through the history endpoint.
	deleted, err := s.productRepo.DeleteProduct(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("product repository delete product: %w", err)
	}

	return deleted, nil
}

func (s *productService) GetProductHistory(ctx context.Context, id int64) ([]model.InventoryLog, error) {
	entries, err := s.inventoryLogRepo.ListInventoryLogsByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("inventory log repository list inventory logs: %w", err)
	}

	return entries, nil
}
