package service_test

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/inventory-service/internal/model"
	"github.com/tuanvumaihuynh/inventory-service/internal/repository"
	"github.com/tuanvumaihuynh/inventory-service/internal/service"
	"github.com/tuanvumaihuynh/inventory-service/internal/storage/db"
)

// fakeDB satisfies db.DB for service tests. Transactions just run the
// closure against the same fake.
type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (f fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(f)
}

type fakeProductRepo struct {
	nextID   int64
	products []model.Product
}

func (f *fakeProductRepo) WithDB(_ db.DB) repository.ProductRepository { return f }

func (f *fakeProductRepo) CreateProduct(_ context.Context, params repository.CreateProductParams) (model.Product, error) {
	for _, existing := range f.products {
		if strings.EqualFold(existing.Name, params.Name) {
			return model.Product{}, repository.ErrDuplicateName
		}
	}

	f.nextID++
	now := time.Now()
	product := model.Product{
		ID:        f.nextID,
		Name:      params.Name,
		Unit:      params.Unit,
		Category:  params.Category,
		Brand:     params.Brand,
		Stock:     params.Stock,
		Status:    params.Status,
		Image:     params.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.products = append(f.products, product)
	return product, nil
}

func (f *fakeProductRepo) GetProductByID(_ context.Context, id int64) (model.Product, error) {
	for _, product := range f.products {
		if product.ID == id {
			return product, nil
		}
	}
	return model.Product{}, repository.ErrNotFound
}

func (f *fakeProductRepo) FindProductIDByName(_ context.Context, name string, excludeID int64) (int64, bool, error) {
	for _, product := range f.products {
		if product.ID != excludeID && strings.EqualFold(product.Name, name) {
			return product.ID, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeProductRepo) ListAllProducts(context.Context) ([]model.Product, error) {
	products := make([]model.Product, 0, len(f.products))
	for i := len(f.products) - 1; i >= 0; i-- {
		products = append(products, f.products[i])
	}
	return products, nil
}

func (f *fakeProductRepo) SearchProductsByName(_ context.Context, name string) ([]model.Product, error) {
	products := make([]model.Product, 0)
	for i := len(f.products) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(f.products[i].Name), strings.ToLower(name)) {
			products = append(products, f.products[i])
		}
	}
	return products, nil
}

func (f *fakeProductRepo) UpdateProduct(_ context.Context, params repository.UpdateProductParams) (model.Product, error) {
	for _, existing := range f.products {
		if existing.ID != params.ID && strings.EqualFold(existing.Name, params.Name) {
			return model.Product{}, repository.ErrDuplicateName
		}
	}

	for i, product := range f.products {
		if product.ID != params.ID {
			continue
		}
		product.Name = params.Name
		product.Unit = params.Unit
		product.Category = params.Category
		product.Brand = params.Brand
		product.Stock = params.Stock
		product.Status = params.Status
		product.Image = params.Image
		product.UpdatedAt = time.Now()
		f.products[i] = product
		return product, nil
	}
	return model.Product{}, repository.ErrNotFound
}

func (f *fakeProductRepo) DeleteProduct(_ context.Context, id int64) (int64, error) {
	for i, product := range f.products {
		if product.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeInventoryLogRepo struct {
	nextID  int64
	entries []model.InventoryLog
}

func (f *fakeInventoryLogRepo) WithDB(_ db.DB) repository.InventoryLogRepository { return f }

func (f *fakeInventoryLogRepo) CreateInventoryLog(_ context.Context, params repository.CreateInventoryLogParams) (model.InventoryLog, error) {
	f.nextID++
	entry := model.InventoryLog{
		ID:        f.nextID,
		ProductID: params.ProductID,
		OldStock:  params.OldStock,
		NewStock:  params.NewStock,
		ChangedBy: params.ChangedBy,
		ChangedAt: time.Now(),
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeInventoryLogRepo) ListInventoryLogsByProduct(_ context.Context, productID int64) ([]model.InventoryLog, error) {
	entries := make([]model.InventoryLog, 0)
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].ProductID == productID {
			entries = append(entries, f.entries[i])
		}
	}
	return entries, nil
}

type fakeOutboxMsgRepo struct {
	msgs []repository.CreateOutboxMsgParams
}

func (f *fakeOutboxMsgRepo) WithDB(_ db.DB) repository.OutboxMsgRepository { return f }

func (f *fakeOutboxMsgRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	f.msgs = append(f.msgs, params)
	return nil
}

func (f *fakeOutboxMsgRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (f *fakeOutboxMsgRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func newTestService() (service.ProductService, *fakeProductRepo, *fakeInventoryLogRepo, *fakeOutboxMsgRepo) {
	productRepo := &fakeProductRepo{}
	inventoryLogRepo := &fakeInventoryLogRepo{}
	outboxMsgRepo := &fakeOutboxMsgRepo{}
	svc := service.NewProductService(fakeDB{}, productRepo, inventoryLogRepo, outboxMsgRepo)
	return svc, productRepo, inventoryLogRepo, outboxMsgRepo
}
