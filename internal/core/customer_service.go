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

// CustomerService manages customer master data. The opening balance is stored
// exactly as entered together with its debit/credit tag; the reconciler
// applies the sign when it reads.
type CustomerService struct {
	pool       *pgxpool.Pool
	reconciler *Reconciler
}

func NewCustomerService(pool *pgxpool.Pool, reconciler *Reconciler) *CustomerService {
	return &CustomerService{pool: pool, reconciler: reconciler}
}

// CustomerInput is the request body for creating or updating a customer.
type CustomerInput struct {
	Name               string          `json:"name"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	Address            string          `json:"address"`
	Type               CustomerType    `json:"customer_type"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceType BalanceType     `json:"opening_balance_type"`
	CreditLimit        decimal.Decimal `json:"credit_limit"`
}

func (in *CustomerInput) normalize() error {
	if in.Name == "" {
		return fmt.Errorf("customer name is required")
	}
	if in.Type == "" {
		in.Type = CustomerRetail
	}
	switch in.Type {
	case CustomerRetail, CustomerLongTerm, CustomerWholesale:
	default:
		return fmt.Errorf("unknown customer type %q", in.Type)
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

const customerColumns = `id, name, phone, email, address, customer_type,
	opening_balance, opening_balance_type, balance, credit_limit, created_at, deleted_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Type,
		&c.OpeningBalance, &c.OpeningBalanceType, &c.Balance, &c.CreditLimit,
		&c.CreatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCustomer inserts a customer. The cached balance starts at the signed
// opening so history reads correctly before any transaction exists.
func (s *CustomerService) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	opening := SignedCustomerOpening(in.OpeningBalance, in.OpeningBalanceType)
	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, email, address, customer_type,
			opening_balance, opening_balance_type, balance, credit_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+customerColumns,
		in.Name, in.Phone, in.Email, in.Address, in.Type,
		in.OpeningBalance, in.OpeningBalanceType, opening, in.CreditLimit,
	))
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

// GetCustomer fetches one customer.
func (s *CustomerService) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", ID: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("fetch customer %d: %w", id, err)
	}
	return c, nil
}

// ListCustomers returns active customers ordered by name. Search matches name
// or phone.
func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	q := "SELECT " + customerColumns + " FROM customers WHERE deleted_at IS NULL"
	var args []any
	if search != "" {
		args = append(args, "%"+strings.TrimSpace(search)+"%")
		q += " AND (name ILIKE $1 OR phone ILIKE $1)"
	}
	q += " ORDER BY name"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// UpdateCustomer rewrites master fields. Editing the opening balance changes
// the ledger's starting point, so the balance is reconciled in the same
// transaction.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin customer update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE customers
		SET name = $1, phone = $2, email = $3, address = $4, customer_type = $5,
		    opening_balance = $6, opening_balance_type = $7, credit_limit = $8
		WHERE id = $9 AND deleted_at IS NULL`,
		in.Name, in.Phone, in.Email, in.Address, in.Type,
		in.OpeningBalance, in.OpeningBalanceType, in.CreditLimit, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &NotFoundError{Entity: "customer", ID: strconv.Itoa(id)}
	}

	if _, err := s.reconciler.CustomerLedgerTx(ctx, tx, id); err != nil {
		return nil, err
	}

	c, err := scanCustomer(tx.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("reload customer %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit customer update: %w", err)
	}
	return c, nil
}

// DeleteCustomer soft-deletes. Sales and payments keep their rows, so the
// ledger remains rebuildable if the customer is ever restored.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE customers SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "customer", ID: strconv.Itoa(id)}
	}
	return nil
}
