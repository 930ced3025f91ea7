package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PurchaseService records debit events against suppliers. Like payments,
// every mutation reconciles the supplier in the same transaction.
type PurchaseService struct {
	pool       *pgxpool.Pool
	reconciler *Reconciler
}

func NewPurchaseService(pool *pgxpool.Pool, reconciler *Reconciler) *PurchaseService {
	return &PurchaseService{pool: pool, reconciler: reconciler}
}

// PurchaseInput is the request body for creating or updating a purchase.
type PurchaseInput struct {
	SupplierID   int             `json:"supplier_id"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Description  string          `json:"description"`
	ReferenceNo  string          `json:"reference_no"`
	PurchaseDate string          `json:"purchase_date"` // YYYY-MM-DD, today when empty
}

// CreatePurchase inserts the purchase and reconciles the supplier.
func (s *PurchaseService) CreatePurchase(ctx context.Context, in PurchaseInput) (*Purchase, error) {
	if !in.TotalCost.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1 AND deleted_at IS NULL)", in.SupplierID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("validate purchase supplier: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "supplier", ID: strconv.Itoa(in.SupplierID)}
	}

	var p Purchase
	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (supplier_id, total_cost, description, reference_no, purchase_date)
		VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, '')::date, CURRENT_DATE))
		RETURNING id, supplier_id, total_cost, description, reference_no, purchase_date::text, created_at
	`, in.SupplierID, in.TotalCost, in.Description, in.ReferenceNo, in.PurchaseDate).Scan(
		&p.ID, &p.SupplierID, &p.TotalCost, &p.Description, &p.ReferenceNo, &p.PurchaseDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	if _, err := s.reconciler.SupplierLedgerTx(ctx, tx, p.SupplierID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}
	return &p, nil
}

// UpdatePurchase rewrites cost/description/date. The supplier is fixed at
// creation.
func (s *PurchaseService) UpdatePurchase(ctx context.Context, id int, in PurchaseInput) (*Purchase, error) {
	if !in.TotalCost.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin purchase update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var p Purchase
	err = tx.QueryRow(ctx, `
		UPDATE purchases
		SET total_cost    = $1,
		    description   = $2,
		    reference_no  = $3,
		    purchase_date = COALESCE(NULLIF($4, '')::date, purchase_date)
		WHERE id = $5
		RETURNING id, supplier_id, total_cost, description, reference_no, purchase_date::text, created_at
	`, in.TotalCost, in.Description, in.ReferenceNo, in.PurchaseDate, id).Scan(
		&p.ID, &p.SupplierID, &p.TotalCost, &p.Description, &p.ReferenceNo, &p.PurchaseDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "purchase", ID: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("update purchase %d: %w", id, err)
	}

	if _, err := s.reconciler.SupplierLedgerTx(ctx, tx, p.SupplierID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase update: %w", err)
	}
	return &p, nil
}

// DeletePurchase removes the row and reconciles its supplier.
func (s *PurchaseService) DeletePurchase(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin purchase delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var supplierID int
	err = tx.QueryRow(ctx,
		"DELETE FROM purchases WHERE id = $1 RETURNING supplier_id", id,
	).Scan(&supplierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "purchase", ID: strconv.Itoa(id)}
		}
		return fmt.Errorf("delete purchase %d: %w", id, err)
	}

	if _, err := s.reconciler.SupplierLedgerTx(ctx, tx, supplierID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit purchase delete: %w", err)
	}
	return nil
}

// GetPurchase fetches one purchase row.
func (s *PurchaseService) GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	var p Purchase
	err := s.pool.QueryRow(ctx, `
		SELECT id, supplier_id, total_cost, description, reference_no, purchase_date::text, created_at
		FROM purchases WHERE id = $1
	`, id).Scan(&p.ID, &p.SupplierID, &p.TotalCost, &p.Description, &p.ReferenceNo, &p.PurchaseDate, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "purchase", ID: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("fetch purchase %d: %w", id, err)
	}
	return &p, nil
}

// ListPurchases returns purchases newest first, optionally for one supplier.
func (s *PurchaseService) ListPurchases(ctx context.Context, supplierID *int) ([]Purchase, error) {
	q := `
		SELECT id, supplier_id, total_cost, description, reference_no, purchase_date::text, created_at
		FROM purchases`
	var args []any
	if supplierID != nil {
		args = append(args, *supplierID)
		q += " WHERE supplier_id = $1"
	}
	q += " ORDER BY purchase_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.TotalCost, &p.Description, &p.ReferenceNo, &p.PurchaseDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
