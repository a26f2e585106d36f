package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/inventory-service/internal/model"
	"github.com/tuanvumaihuynh/inventory-service/internal/storage/db"
)

var (
	// ErrNotFound is returned when no row matches the given identifier.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when an insert or update violates the
	// case-insensitive name uniqueness constraint.
	ErrDuplicateName = errors.New("duplicate product name")
)

const uniqueViolationCode = "23505"

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
	ID       int64
	Name     string
	Unit     string
	Category string
	Brand    string
	Stock    int
	Status   string
	Image    string
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	GetProductByID(ctx context.Context, id int64) (model.Product, error)
	// FindProductIDByName looks a product up by case-insensitive name,
	// ignoring the row with excludeID (0 matches nothing since identifiers
	// start at 1). The boolean reports whether a match exists.
	FindProductIDByName(ctx context.Context, name string, excludeID int64) (int64, bool, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	SearchProductsByName(ctx context.Context, name string) ([]model.Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, unit, category, brand, stock, status, image, created_at, updated_at`

func (r productRepository) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO products (name, unit, category, brand, stock, status, image)
		VALUES (@name, @unit, @category, @brand, @stock, @status, @image)
		RETURNING `+productColumns+`;
	`, pgx.NamedArgs{
		"name":     params.Name,
		"unit":     params.Unit,
		"category": params.Category,
		"brand":    params.Brand,
		"stock":    params.Stock,
		"status":   params.Status,
		"image":    params.Image,
	})

	product, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Product{}, fmt.Errorf("create product %q: %w", params.Name, ErrDuplicateName)
		}
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func (r productRepository) GetProductByID(ctx context.Context, id int64) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = @id;
	`, pgx.NamedArgs{"id": id})

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, fmt.Errorf("get product %d: %w", id, ErrNotFound)
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (r productRepository) FindProductIDByName(ctx context.Context, name string, excludeID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		SELECT id
		FROM products
		WHERE LOWER(name) = LOWER(@name) AND id <> @exclude_id;
	`, pgx.NamedArgs{
		"name":       name,
		"exclude_id": excludeID,
	}).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("find product id by name: %w", err)
	}

	return id, true, nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY id DESC;
	`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}

	return collectProducts(rows)
}

func (r productRepository) SearchProductsByName(ctx context.Context, name string) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE name ILIKE '%' || @name || '%'
		ORDER BY id DESC;
	`, pgx.NamedArgs{"name": name})
	if err != nil {
		return nil, fmt.Errorf("search products by name: %w", err)
	}

	return collectProducts(rows)
}

func (r productRepository) UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET name       = @name,
		    unit       = @unit,
		    category   = @category,
		    brand      = @brand,
		    stock      = @stock,
		    status     = @status,
		    image      = @image,
		    updated_at = NOW()
		WHERE id = @id
		RETURNING `+productColumns+`;
	`, pgx.NamedArgs{
		"id":       params.ID,
		"name":     params.Name,
		"unit":     params.Unit,
		"category": params.Category,
		"brand":    params.Brand,
		"stock":    params.Stock,
		"status":   params.Status,
		"image":    params.Image,
	})

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, fmt.Errorf("update product %d: %w", params.ID, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return model.Product{}, fmt.Errorf("update product %d: %w", params.ID, ErrDuplicateName)
		}
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM products
		WHERE id = @id;
	`, pgx.NamedArgs{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete product: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Unit,
		&p.Category,
		&p.Brand,
		&p.Stock,
		&p.Status,
		&p.Image,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
