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

// PaymentService records credit events against customers and suppliers.
// Every mutation recomputes the affected entity's balance from source rows
// inside the same transaction — there is no incremental balance arithmetic
// anywhere, so deletes and edits cannot leave drift behind.
type PaymentService struct {
	pool       *pgxpool.Pool
	reconciler *Reconciler
}

func NewPaymentService(pool *pgxpool.Pool, reconciler *Reconciler) *PaymentService {
	return &PaymentService{pool: pool, reconciler: reconciler}
}

// PaymentInput is the request body for creating or updating a payment.
type PaymentInput struct {
	CustomerID    *int            `json:"customer_id,omitempty"`
	SupplierID    *int            `json:"supplier_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	ReferenceNo   string          `json:"reference_no"`
	Notes         string          `json:"notes"`
	PaymentDate   string          `json:"payment_date"` // YYYY-MM-DD, today when empty
}

func (in *PaymentInput) validate() error {
	if (in.CustomerID == nil) == (in.SupplierID == nil) {
		return ErrPaymentTarget
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// CreatePayment inserts the payment and reconciles the target entity in one
// transaction.
func (s *PaymentService) CreatePayment(ctx context.Context, in PaymentInput) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := validatePaymentTarget(ctx, tx, in.CustomerID, in.SupplierID); err != nil {
		return nil, err
	}

	method := in.PaymentMethod
	if method == "" {
		method = "cash"
	}

	var p Payment
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (customer_id, supplier_id, amount, payment_method, reference_no, notes, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, '')::date, CURRENT_DATE))
		RETURNING id, customer_id, supplier_id, amount, payment_method, reference_no, notes, payment_date::text, created_at
	`, in.CustomerID, in.SupplierID, in.Amount, method, in.ReferenceNo, in.Notes, in.PaymentDate).Scan(
		&p.ID, &p.CustomerID, &p.SupplierID, &p.Amount, &p.PaymentMethod,
		&p.ReferenceNo, &p.Notes, &p.PaymentDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if err := s.reconcileTargetTx(ctx, tx, p.CustomerID, p.SupplierID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}
	return &p, nil
}

// UpdatePayment rewrites amount/method/date fields. The payment's target
// entity is fixed at creation; a body that names a different customer or
// supplier is rejected with ErrPaymentRetarget rather than silently ignored.
// Reconciliation applies the full recomputation, so the old amount needs no
// manual reversal.
func (s *PaymentService) UpdatePayment(ctx context.Context, id int, in PaymentInput) (*Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin payment update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var curCustomer, curSupplier *int
	err = tx.QueryRow(ctx,
		"SELECT customer_id, supplier_id FROM payments WHERE id = $1 FOR UPDATE", id,
	).Scan(&curCustomer, &curSupplier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "payment", ID: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("load payment %d: %w", id, err)
	}
	if in.CustomerID != nil && (curCustomer == nil || *curCustomer != *in.CustomerID) {
		return nil, ErrPaymentRetarget
	}
	if in.SupplierID != nil && (curSupplier == nil || *curSupplier != *in.SupplierID) {
		return nil, ErrPaymentRetarget
	}

	var p Payment
	err = tx.QueryRow(ctx, `
		UPDATE payments
		SET amount = $1,
		    payment_method = COALESCE(NULLIF($2, ''), payment_method),
		    reference_no   = $3,
		    notes          = $4,
		    payment_date   = COALESCE(NULLIF($5, '')::date, payment_date)
		WHERE id = $6
		RETURNING id, customer_id, supplier_id, amount, payment_method, reference_no, notes, payment_date::text, created_at
	`, in.Amount, in.PaymentMethod, in.ReferenceNo, in.Notes, in.PaymentDate, id).Scan(
		&p.ID, &p.CustomerID, &p.SupplierID, &p.Amount, &p.PaymentMethod,
		&p.ReferenceNo, &p.Notes, &p.PaymentDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "payment", ID: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("update payment %d: %w", id, err)
	}

	if err := s.reconcileTargetTx(ctx, tx, p.CustomerID, p.SupplierID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment update: %w", err)
	}
	return &p, nil
}

// DeletePayment removes the row and reconciles the entity it pointed at, so
// the delete's balance effect is reversed atomically with the removal.
func (s *PaymentService) DeletePayment(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin payment delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID, supplierID *int
	err = tx.QueryRow(ctx,
		"DELETE FROM payments WHERE id = $1 RETURNING customer_id, supplier_id", id,
	).Scan(&customerID, &supplierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "payment", ID: strconv.Itoa(id)}
		}
		return fmt.Errorf("delete payment %d: %w", id, err)
	}

	if err := s.reconcileTargetTx(ctx, tx, customerID, supplierID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit payment delete: %w", err)
	}
	return nil
}

// GetPayment fetches one payment row.
func (s *PaymentService) GetPayment(ctx context.Context, id int) (*Payment, error) {
	var p Payment
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, supplier_id, amount, payment_method, reference_no, notes, payment_date::text, created_at
		FROM payments WHERE id = $1
	`, id).Scan(
		&p.ID, &p.CustomerID, &p.SupplierID, &p.Amount, &p.PaymentMethod,
		&p.ReferenceNo, &p.Notes, &p.PaymentDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "payment", ID: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("fetch payment %d: %w", id, err)
	}
	return &p, nil
}

// ListPayments returns payments newest first, optionally narrowed to one
// customer or supplier.
func (s *PaymentService) ListPayments(ctx context.Context, customerID, supplierID *int) ([]Payment, error) {
	q := `
		SELECT id, customer_id, supplier_id, amount, payment_method, reference_no, notes, payment_date::text, created_at
		FROM payments WHERE 1=1`
	var args []any
	if customerID != nil {
		args = append(args, *customerID)
		q += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if supplierID != nil {
		args = append(args, *supplierID)
		q += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	q += " ORDER BY payment_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.CustomerID, &p.SupplierID, &p.Amount, &p.PaymentMethod,
			&p.ReferenceNo, &p.Notes, &p.PaymentDate, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *PaymentService) reconcileTargetTx(ctx context.Context, tx pgx.Tx, customerID, supplierID *int) error {
	if customerID != nil {
		if _, err := s.reconciler.CustomerLedgerTx(ctx, tx, *customerID); err != nil {
			return err
		}
	}
	if supplierID != nil {
		if _, err := s.reconciler.SupplierLedgerTx(ctx, tx, *supplierID); err != nil {
			return err
		}
	}
	return nil
}

func validatePaymentTarget(ctx context.Context, tx pgx.Tx, customerID, supplierID *int) error {
	if customerID != nil {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND deleted_at IS NULL)", *customerID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("validate payment customer: %w", err)
		}
		if !exists {
			return &NotFoundError{Entity: "customer", ID: strconv.Itoa(*customerID)}
		}
	}
	if supplierID != nil {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1 AND deleted_at IS NULL)", *supplierID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("validate payment supplier: %w", err)
		}
		if !exists {
			return &NotFoundError{Entity: "supplier", ID: strconv.Itoa(*supplierID)}
		}
	}
	return nil
}
