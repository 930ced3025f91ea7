package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"retail-ledger/internal/notify"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleService is the sale transaction processor: it validates tier pricing,
// computes the discount chain, persists the sale with its item snapshots, and
// mutates stock — all inside one database transaction. Any failure rolls the
// whole sale back; there is never a partial stock decrement or an orphan
// header row.
type SaleService struct {
	pool      *pgxpool.Pool
	stock     *StockLedger
	publisher notify.Publisher
	log       *zap.Logger
}

func NewSaleService(pool *pgxpool.Pool, stock *StockLedger, publisher notify.Publisher, log *zap.Logger) *SaleService {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &SaleService{pool: pool, stock: stock, publisher: publisher, log: log}
}

// resolvedItem pairs a requested line with its catalog row (nil when the
// product no longer resolves) and the computed money chain.
type resolvedItem struct {
	input   SaleItemInput
	product *Product
	comp    ItemComputation
}

// CreateSale runs the single-pass sale state machine: validate → price-check
// → compute → persist header → per item snapshot + stock decrement → commit.
// The sale_created notification is emitted after commit and its failure never
// affects the sale.
func (s *SaleService) CreateSale(ctx context.Context, input SaleInput, cashier Cashier) (*Sale, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptySale
	}
	if !ValidDiscountType(input.DiscountType) {
		return nil, ErrInvalidDiscount
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if !ValidDiscountType(it.ItemDiscountType) {
			return nil, ErrInvalidDiscount
		}
	}

	tier := input.CustomerType
	if tier == "" {
		tier = CustomerRetail
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin sale tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if input.CustomerID != nil {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND deleted_at IS NULL)",
			*input.CustomerID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("validate customer: %w", err)
		}
		if !exists {
			return nil, &NotFoundError{Entity: "customer", ID: strconv.Itoa(*input.CustomerID)}
		}
	}

	// Resolve and price-check every line before writing anything. Lines whose
	// product no longer exists in the active catalog pass through unchecked:
	// historical entries may be gone, and the caller's snapshot fields stand.
	resolved := make([]resolvedItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for i, it := range input.Items {
		var ri resolvedItem
		ri.input = it

		p, err := fetchActiveProductTx(ctx, tx, it.ProductID)
		if err != nil && !IsNotFound(err) {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		ri.product = p

		if p != nil {
			if err := CheckSubmittedPrice(p, tier, it.Price); err != nil {
				var pm *PriceMismatchError
				if errors.As(err, &pm) {
					s.log.Warn("sale rejected: price mismatch",
						zap.String("product_id", pm.ProductID),
						zap.String("expected", pm.Expected.StringFixed(2)),
						zap.String("submitted", pm.Submitted.StringFixed(2)),
						zap.String("cashier_id", cashier.ID))
				}
				return nil, err
			}
		}

		ri.comp = ComputeItem(it.Quantity, it.Price, it.ItemDiscountType, it.ItemDiscountVal, it.FinalPrice)
		subtotal = subtotal.Add(ri.comp.Net)
		resolved = append(resolved, ri)
	}

	totals := ComputeSale(subtotal, input.DiscountType, input.DiscountValue)

	saleDate := time.Now()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}

	sale := &Sale{
		CustomerID:         input.CustomerID,
		CustomerType:       tier,
		Subtotal:           totals.Subtotal,
		DiscountType:       normalizeDiscountType(input.DiscountType),
		DiscountAmount:     totals.DiscountAmount,
		DiscountPercentage: totals.DiscountPercentage,
		TotalAmount:        totals.Total,
		Status:             SaleCompleted,
		CashierID:          cashier.ID,
		CashierName:        cashier.Name,
		SaleDate:           saleDate,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, customer_type, subtotal, discount_type, discount_amount,
		                   discount_percentage, total_amount, status, cashier_id, cashier_name, sale_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'completed', $8, $9, $10)
		RETURNING id, created_at
	`, input.CustomerID, tier, sale.Subtotal, sale.DiscountType,
		sale.DiscountAmount, sale.DiscountPercentage, sale.TotalAmount,
		cashier.ID, cashier.Name, saleDate).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	for i, ri := range resolved {
		item := snapshotItem(ri)
		item.SaleID = sale.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, product_id, product_name, brand, category, unit,
			                        quantity, original_price, final_price, discount_type, discount_value, discount_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`, sale.ID, item.ProductID, item.ProductName, item.Brand, item.Category, item.Unit,
			item.Quantity, item.OriginalPrice, item.FinalPrice,
			item.DiscountType, item.DiscountValue, item.DiscountAmount).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert sale item %d: %w", i+1, err)
		}
		sale.Items = append(sale.Items, item)

		if ri.product != nil {
			if err := s.stock.DecrementTx(ctx, tx, ri.product.ID, ri.input.Quantity); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}

	// The sale is committed: nothing past this point may return an error, or
	// a client retry would duplicate it. The response is assembled from the
	// inserted rows, not re-read.
	if perr := s.publisher.Publish(ctx, "sale_created", sale); perr != nil {
		s.log.Error("sale_created publish failed", zap.Int("sale_id", sale.ID), zap.Error(perr))
	}

	return sale, nil
}

// normalizeDiscountType maps an omitted descriptor to the stored 'none'.
func normalizeDiscountType(t DiscountType) DiscountType {
	if t == "" {
		return DiscountNone
	}
	return t
}

// snapshotItem freezes the catalog attributes onto the item row. Caller-
// supplied fields win only when the product no longer resolves.
func snapshotItem(ri resolvedItem) SaleItem {
	item := SaleItem{
		ProductName:    ri.input.ProductName,
		Brand:          ri.input.Brand,
		Category:       ri.input.Category,
		Unit:           ri.input.Unit,
		Quantity:       ri.input.Quantity,
		OriginalPrice:  ri.input.Price,
		FinalPrice:     ri.comp.FinalUnitPrice,
		DiscountType:   normalizeDiscountType(ri.input.ItemDiscountType),
		DiscountValue:  ri.input.ItemDiscountVal,
		DiscountAmount: ri.comp.Discount,
	}
	if ri.product != nil {
		pid := ri.product.ID
		item.ProductID = &pid
		item.ProductName = ri.product.Name
		item.Brand = ri.product.Brand
		item.Category = ri.product.Category
		item.Unit = ri.product.Unit
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}
	return item
}

// VoidSale reverses a completed sale: every line that still references a
// product is restocked, then the sale is marked voided. Voided sales drop out
// of ledger reconciliation but remain queryable history.
func (s *SaleService) VoidSale(ctx context.Context, saleID int) (*Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin void tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status SaleStatus
	err = tx.QueryRow(ctx, "SELECT status FROM sales WHERE id = $1 FOR UPDATE", saleID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "sale", ID: strconv.Itoa(saleID)}
		}
		return nil, fmt.Errorf("lock sale %d: %w", saleID, err)
	}
	if status != SaleCompleted {
		return nil, fmt.Errorf("sale %d cannot be voided: status is %s", saleID, status)
	}

	rows, err := tx.Query(ctx,
		"SELECT product_id, quantity FROM sale_items WHERE sale_id = $1 AND product_id IS NOT NULL",
		saleID)
	if err != nil {
		return nil, fmt.Errorf("query sale items for void: %w", err)
	}
	type restock struct {
		productID string
		qty       int
	}
	var restocks []restock
	for rows.Next() {
		var r restock
		if err := rows.Scan(&r.productID, &r.qty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale item for void: %w", err)
		}
		restocks = append(restocks, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items for void: %w", err)
	}

	for _, r := range restocks {
		if err := s.stock.IncrementTx(ctx, tx, r.productID, r.qty); err != nil {
			// A hard-deleted product cannot be restocked; the void still stands.
			if !IsNotFound(err) {
				return nil, err
			}
			s.log.Warn("void restock skipped: product gone",
				zap.Int("sale_id", saleID), zap.String("product_id", r.productID))
		}
	}

	if _, err := tx.Exec(ctx, "UPDATE sales SET status = 'voided' WHERE id = $1", saleID); err != nil {
		return nil, fmt.Errorf("mark sale voided: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit void: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

// GetSale fetches a sale header with all item snapshots.
func (s *SaleService) GetSale(ctx context.Context, saleID int) (*Sale, error) {
	var sale Sale
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, customer_type, subtotal, discount_type, discount_amount,
		       discount_percentage, total_amount, status, cashier_id, cashier_name, sale_date, created_at
		FROM sales WHERE id = $1
	`, saleID).Scan(
		&sale.ID, &sale.CustomerID, &sale.CustomerType, &sale.Subtotal, &sale.DiscountType,
		&sale.DiscountAmount, &sale.DiscountPercentage, &sale.TotalAmount, &sale.Status,
		&sale.CashierID, &sale.CashierName, &sale.SaleDate, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "sale", ID: strconv.Itoa(saleID)}
		}
		return nil, fmt.Errorf("fetch sale %d: %w", saleID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, brand, category, unit,
		       quantity, original_price, final_price, discount_type, discount_value, discount_amount
		FROM sale_items WHERE sale_id = $1 ORDER BY id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Brand, &it.Category, &it.Unit,
			&it.Quantity, &it.OriginalPrice, &it.FinalPrice, &it.DiscountType, &it.DiscountValue, &it.DiscountAmount,
		); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items: %w", err)
	}
	return &sale, nil
}

// SaleFilter narrows ListSales. Zero values mean no bound.
type SaleFilter struct {
	CustomerID *int
	From       *time.Time
	To         *time.Time
	Status     *SaleStatus
}

// ListSales returns sale headers (without items) newest first.
func (s *SaleService) ListSales(ctx context.Context, f SaleFilter) ([]Sale, error) {
	q := `
		SELECT id, customer_id, customer_type, subtotal, discount_type, discount_amount,
		       discount_percentage, total_amount, status, cashier_id, cashier_name, sale_date, created_at
		FROM sales WHERE 1=1`
	var args []any

	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		q += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" AND sale_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" AND sale_date <= $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY sale_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(
			&sale.ID, &sale.CustomerID, &sale.CustomerType, &sale.Subtotal, &sale.DiscountType,
			&sale.DiscountAmount, &sale.DiscountPercentage, &sale.TotalAmount, &sale.Status,
			&sale.CashierID, &sale.CashierName, &sale.SaleDate, &sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// fetchActiveProductTx loads a product that is still part of the active
// catalog. Soft-deleted rows report NotFound.
func fetchActiveProductTx(ctx context.Context, tx pgx.Tx, productID string) (*Product, error) {
	var p Product
	err := tx.QueryRow(ctx, `
		SELECT id, name, brand, category, unit, retail_price, wholesale_price, cost_price,
		       stock_quantity, total_sold, created_at, updated_at
		FROM products WHERE id = $1 AND deleted_at IS NULL
	`, productID).Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &p.Unit, &p.RetailPrice, &p.WholesalePrice,
		&p.CostPrice, &p.StockQuantity, &p.TotalSold, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "product", ID: productID}
		}
		return nil, fmt.Errorf("fetch product %s: %w", productID, err)
	}
	return &p, nil
}
