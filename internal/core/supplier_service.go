package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SupplierService manages supplier master data. Unlike customers, the
// supplier opening balance is signed once at write time: the stored value is
// already negative for credit openings and the reconciler uses it verbatim.
type SupplierService struct {
	pool       *pgxpool.Pool
	reconciler *Reconciler
}

func NewSupplierService(pool *pgxpool.Pool, reconciler *Reconciler) *SupplierService {
	return &SupplierService{pool: pool, reconciler: reconciler}
}

// SupplierInput is the request body for creating or updating a supplier.
// OpeningBalance is entered unsigned; OpeningBalanceType carries the sign.
type SupplierInput struct {
	Name               string          `json:"name"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	Address            string          `json:"address"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceType BalanceType     `json:"opening_balance_type"`
}

func (in *SupplierInput) normalize() error {
	if in.Name == "" {
		return fmt.Errorf("supplier name is required")
	}
	if in.OpeningBalanceType == "" {
		in.OpeningBalanceType = BalanceDebit
	}
	switch in.OpeningBalanceType {
	case BalanceDebit, BalanceCredit:
	default:
		return fmt.Errorf("unknown balance type %q", in.OpeningBalanceType)
	}
	return nil
}

const supplierColumns = `id, name, phone, email, address,
	opening_balance, opening_balance_type, balance, created_at, deleted_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(
		&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address,
		&s.OpeningBalance, &s.OpeningBalanceType, &s.Balance,
		&s.CreatedAt, &s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSupplier signs the opening balance and inserts the row.
func (s *SupplierService) CreateSupplier(ctx context.Context, in SupplierInput) (*Supplier, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	opening := SignedSupplierOpening(in.OpeningBalance, in.OpeningBalanceType)
	sup, err := scanSupplier(s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, phone, email, address, opening_balance, opening_balance_type, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $5)
		RETURNING `+supplierColumns,
		in.Name, in.Phone, in.Email, in.Address, opening, in.OpeningBalanceType,
	))
	if err != nil {
		return nil, fmt.Errorf("insert supplier: %w", err)
	}
	return sup, nil
}

// GetSupplier fetches one supplier.
func (s *SupplierService) GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	sup, err := scanSupplier(s.pool.QueryRow(ctx,
		"SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "supplier", ID: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("fetch supplier %d: %w", id, err)
	}
	return sup, nil
}

// ListSuppliers returns active suppliers ordered by name.
func (s *SupplierService) ListSuppliers(ctx context.Context, search string) ([]Supplier, error) {
	q := "SELECT " + supplierColumns + " FROM suppliers WHERE deleted_at IS NULL"
	var args []any
	if search != "" {
		args = append(args, "%"+strings.TrimSpace(search)+"%")
		q += " AND (name ILIKE $1 OR phone ILIKE $1)"
	}
	q += " ORDER BY name"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, *sup)
	}
	return suppliers, rows.Err()
}

// UpdateSupplier rewrites master fields and re-signs the opening, then
// reconciles in the same transaction.
func (s *SupplierService) UpdateSupplier(ctx context.Context, id int, in SupplierInput) (*Supplier, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin supplier update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	opening := SignedSupplierOpening(in.OpeningBalance, in.OpeningBalanceType)
	tag, err := tx.Exec(ctx, `
		UPDATE suppliers
		SET name = $1, phone = $2, email = $3, address = $4,
		    opening_balance = $5, opening_balance_type = $6
		WHERE id = $7 AND deleted_at IS NULL`,
		in.Name, in.Phone, in.Email, in.Address, opening, in.OpeningBalanceType, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update supplier %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &NotFoundError{Entity: "supplier", ID: strconv.Itoa(id)}
	}

	if _, err := s.reconciler.SupplierLedgerTx(ctx, tx, id); err != nil {
		return nil, err
	}

	sup, err := scanSupplier(tx.QueryRow(ctx,
		"SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("reload supplier %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit supplier update: %w", err)
	}
	return sup, nil
}

// DeleteSupplier soft-deletes; purchases and payments keep their rows.
func (s *SupplierService) DeleteSupplier(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE suppliers SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("delete supplier %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "supplier", ID: strconv.Itoa(id)}
	}
	return nil
}
