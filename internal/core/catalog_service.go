package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService manages the product catalog. Deletes are soft by default so
// historical sale items keep a live product reference; a hard delete is only
// permitted for products no sale has ever touched.
type CatalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) *CatalogService {
	return &CatalogService{pool: pool}
}

// ProductInput is the request body for creating or updating a product.
type ProductInput struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	StockQuantity  int             `json:"stock_quantity"`
}

const productColumns = `id, name, brand, category, unit, retail_price, wholesale_price, cost_price,
	stock_quantity, total_sold, created_at, updated_at, deleted_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &p.Unit,
		&p.RetailPrice, &p.WholesalePrice, &p.CostPrice,
		&p.StockQuantity, &p.TotalSold, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a new catalog row. The ID is caller-assigned (SKU).
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if in.ID == "" || in.Name == "" {
		return nil, fmt.Errorf("product id and name are required")
	}
	if in.StockQuantity < 0 {
		return nil, ErrInvalidQuantity
	}
	unit := in.Unit
	if unit == "" {
		unit = "pcs"
	}
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, brand, category, unit, retail_price, wholesale_price, cost_price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		in.ID, in.Name, in.Brand, in.Category, unit,
		in.RetailPrice, in.WholesalePrice, in.CostPrice, in.StockQuantity,
	))
	if err != nil {
		return nil, fmt.Errorf("insert product %s: %w", in.ID, err)
	}
	return p, nil
}

// GetProduct fetches one product, active or soft-deleted.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "product", ID: id}
		}
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	return p, nil
}

// ProductFilter narrows ListProducts. Search matches name or brand,
// case-insensitive.
type ProductFilter struct {
	Search   string
	Category string
	LowStock *int // only products with stock_quantity <= this
}

// ListProducts returns active products ordered by name.
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	q := "SELECT " + productColumns + " FROM products WHERE deleted_at IS NULL"
	var args []any
	if f.Search != "" {
		args = append(args, "%"+strings.TrimSpace(f.Search)+"%")
		q += fmt.Sprintf(" AND (name ILIKE $%d OR brand ILIKE $%d)", len(args), len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		q += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.LowStock != nil {
		args = append(args, *f.LowStock)
		q += fmt.Sprintf(" AND stock_quantity <= $%d", len(args))
	}
	q += " ORDER BY name"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// UpdateProduct rewrites the descriptive and pricing fields. Stock moves only
// through sales, voids and explicit adjustments, never through this path.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $1, brand = $2, category = $3, unit = COALESCE(NULLIF($4, ''), unit),
		    retail_price = $5, wholesale_price = $6, cost_price = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
		RETURNING `+productColumns,
		in.Name, in.Brand, in.Category, in.Unit,
		in.RetailPrice, in.WholesalePrice, in.CostPrice, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "product", ID: id}
		}
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

// AdjustStock sets the absolute stock level, for manual corrections outside
// the sale flow.
func (s *CatalogService) AdjustStock(ctx context.Context, id string, quantity int) (*Product, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		UPDATE products SET stock_quantity = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING `+productColumns, quantity, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "product", ID: id}
		}
		return nil, fmt.Errorf("adjust stock %s: %w", id, err)
	}
	return p, nil
}

// DeleteProduct soft-deletes by default. When hard is set, the row is removed
// only if no sale item references it; otherwise ErrProductReferenced.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string, hard bool) error {
	if !hard {
		tag, err := s.pool.Exec(ctx,
			"UPDATE products SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
		if err != nil {
			return fmt.Errorf("soft delete product %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return &NotFoundError{Entity: "product", ID: id}
		}
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin product delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var referenced bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM sale_items WHERE product_id = $1)", id,
	).Scan(&referenced); err != nil {
		return fmt.Errorf("check product references: %w", err)
	}
	if referenced {
		return ErrProductReferenced
	}

	tag, err := tx.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "product", ID: id}
	}
	return tx.Commit(ctx)
}
