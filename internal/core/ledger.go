package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"retail-ledger/internal/money"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerEntry is one row of a reconciled statement. RunningBalance is the
// cumulative signed total after this entry.
type LedgerEntry struct {
	Date           time.Time       `json:"date"`
	Type           string          `json:"type"` // opening_balance | sale | purchase | payment
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// LedgerStatement is a full date-ordered ledger plus the reconciled summary.
// Balance is authoritative: the reconciler writes it back over the entity's
// cached balance column.
type LedgerStatement struct {
	Entries      []LedgerEntry   `json:"entries"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	Balance      decimal.Decimal `json:"balance"`
}

// BalanceCorrection reports a forced reconciliation pass.
type BalanceCorrection struct {
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
}

// LedgerEvent is a debit or credit event before folding.
type LedgerEvent struct {
	Date        time.Time
	Type        string
	Description string
	Amount      decimal.Decimal
	Debit       bool
}

// SignedCustomerOpening converts a customer opening balance to its signed
// value at read time: debit positive (customer owes us), credit negative.
// Suppliers have no read-time counterpart — their openings are pre-signed at
// write time by SignedSupplierOpening. The two conventions carry inverted
// meanings and deliberately never share code.
func SignedCustomerOpening(amount decimal.Decimal, bt BalanceType) decimal.Decimal {
	if bt == BalanceCredit {
		return amount.Neg()
	}
	return amount
}

// SignedSupplierOpening converts a supplier opening balance to the pre-signed
// value stored at creation time: debit positive (we owe the supplier), credit
// negative (the supplier owes us).
func SignedSupplierOpening(amount decimal.Decimal, bt BalanceType) decimal.Decimal {
	if bt == BalanceCredit {
		return amount.Neg()
	}
	return amount
}

// FoldLedger folds a signed opening balance and a stream of events into a
// date-ordered ledger with running balances. The opening entry is always
// first regardless of its date. Same-date events keep their source order,
// which the loaders arrange as debits (sales/purchases) before payments.
func FoldLedger(openingSigned decimal.Decimal, openingDate time.Time, events []LedgerEvent) *LedgerStatement {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	st := &LedgerStatement{}
	running := openingSigned

	opening := LedgerEntry{
		Date:           openingDate,
		Type:           "opening_balance",
		Description:    "Opening balance",
		RunningBalance: money.Round(running),
	}
	if openingSigned.IsNegative() {
		opening.Credit = openingSigned.Neg()
	} else {
		opening.Debit = openingSigned
	}
	st.Entries = append(st.Entries, opening)
	st.TotalDebits = st.TotalDebits.Add(opening.Debit)
	st.TotalCredits = st.TotalCredits.Add(opening.Credit)

	for _, ev := range events {
		e := LedgerEntry{Date: ev.Date, Type: ev.Type, Description: ev.Description}
		if ev.Debit {
			e.Debit = ev.Amount
			running = running.Add(ev.Amount)
			st.TotalDebits = st.TotalDebits.Add(ev.Amount)
		} else {
			e.Credit = ev.Amount
			running = running.Sub(ev.Amount)
			st.TotalCredits = st.TotalCredits.Add(ev.Amount)
		}
		e.RunningBalance = money.Round(running)
		st.Entries = append(st.Entries, e)
	}

	st.Balance = money.Round(running)
	st.TotalDebits = money.Round(st.TotalDebits)
	st.TotalCredits = money.Round(st.TotalCredits)
	return st
}

// Reconciler rebuilds customer and supplier balances from first principles:
// opening balance plus every posted debit/credit event, in date order. The
// cached balance column is a convenience overwritten on every pass; it is
// never trusted as a source.
type Reconciler struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewReconciler(pool *pgxpool.Pool, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{pool: pool, log: log}
}

// ── Customers ─────────────────────────────────────────────────────────────────

// CustomerLedger reconstructs a customer's full ledger: opening balance,
// completed sales as debits, payments as credits. The reconciled balance is
// written back to customers.balance before returning.
func (r *Reconciler) CustomerLedger(ctx context.Context, customerID int) (*LedgerStatement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin customer ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := r.customerLedgerTx(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit customer ledger: %w", err)
	}
	return st, nil
}

// CustomerLedgerTx runs the reconciliation inside a caller-provided
// transaction, so payment and purchase mutations can recompute the balance
// atomically with their own writes.
func (r *Reconciler) CustomerLedgerTx(ctx context.Context, tx pgx.Tx, customerID int) (*LedgerStatement, error) {
	return r.customerLedgerTx(ctx, tx, customerID)
}

func (r *Reconciler) customerLedgerTx(ctx context.Context, tx pgx.Tx, customerID int) (*LedgerStatement, error) {
	var opening decimal.Decimal
	var openingType BalanceType
	var createdAt time.Time
	err := tx.QueryRow(ctx,
		"SELECT opening_balance, opening_balance_type, created_at FROM customers WHERE id = $1",
		customerID,
	).Scan(&opening, &openingType, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", ID: strconv.Itoa(customerID)}
		}
		return nil, fmt.Errorf("load customer %d: %w", customerID, err)
	}

	var events []LedgerEvent

	// Debit events load first so same-date payments fold after them. The
	// sale timestamp is truncated to its calendar date to match the DATE
	// precision of payments and purchases; ledger ordering is by day.
	rows, err := tx.Query(ctx, `
		SELECT id, sale_date::date, total_amount
		FROM sales
		WHERE customer_id = $1 AND status = 'completed'
		ORDER BY sale_date, id
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer sales: %w", err)
	}
	for rows.Next() {
		var id int
		var date time.Time
		var amount decimal.Decimal
		if err := rows.Scan(&id, &date, &amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		events = append(events, LedgerEvent{
			Date:        date,
			Type:        "sale",
			Description: fmt.Sprintf("Sale #%d", id),
			Amount:      amount,
			Debit:       true,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale rows: %w", err)
	}

	events, err = appendPaymentEvents(ctx, tx, events, "customer_id", customerID)
	if err != nil {
		return nil, err
	}

	st := FoldLedger(SignedCustomerOpening(opening, openingType), createdAt, events)

	if _, err := tx.Exec(ctx,
		"UPDATE customers SET balance = $1 WHERE id = $2", st.Balance, customerID,
	); err != nil {
		return nil, fmt.Errorf("write back customer balance: %w", err)
	}
	return st, nil
}

// RecalculateCustomerBalance forces a reconciliation pass and reports the
// cached value it replaced.
func (r *Reconciler) RecalculateCustomerBalance(ctx context.Context, customerID int) (*BalanceCorrection, error) {
	var before decimal.Decimal
	err := r.pool.QueryRow(ctx, "SELECT balance FROM customers WHERE id = $1", customerID).Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", ID: strconv.Itoa(customerID)}
		}
		return nil, fmt.Errorf("load cached customer balance: %w", err)
	}

	st, err := r.CustomerLedger(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if !before.Equal(st.Balance) {
		r.log.Info("customer balance drift corrected",
			zap.Int("customer_id", customerID),
			zap.String("before", before.StringFixed(2)),
			zap.String("after", st.Balance.StringFixed(2)))
	}
	return &BalanceCorrection{Before: before, After: st.Balance}, nil
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

// SupplierLedger reconstructs a supplier's ledger: pre-signed opening
// balance, purchases as debits, payments as credits. The reconciled balance
// is written back to suppliers.balance before returning.
func (r *Reconciler) SupplierLedger(ctx context.Context, supplierID int) (*LedgerStatement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin supplier ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := r.supplierLedgerTx(ctx, tx, supplierID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit supplier ledger: %w", err)
	}
	return st, nil
}

// SupplierLedgerTx is the caller-transaction variant of SupplierLedger.
func (r *Reconciler) SupplierLedgerTx(ctx context.Context, tx pgx.Tx, supplierID int) (*LedgerStatement, error) {
	return r.supplierLedgerTx(ctx, tx, supplierID)
}

func (r *Reconciler) supplierLedgerTx(ctx context.Context, tx pgx.Tx, supplierID int) (*LedgerStatement, error) {
	// Supplier openings are stored pre-signed at creation time, so the raw
	// column value is already the signed opening.
	var opening decimal.Decimal
	var createdAt time.Time
	err := tx.QueryRow(ctx,
		"SELECT opening_balance, created_at FROM suppliers WHERE id = $1",
		supplierID,
	).Scan(&opening, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "supplier", ID: strconv.Itoa(supplierID)}
		}
		return nil, fmt.Errorf("load supplier %d: %w", supplierID, err)
	}

	var events []LedgerEvent

	rows, err := tx.Query(ctx, `
		SELECT id, purchase_date, total_cost, description, reference_no
		FROM purchases
		WHERE supplier_id = $1
		ORDER BY purchase_date, id
	`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("query supplier purchases: %w", err)
	}
	for rows.Next() {
		var id int
		var date time.Time
		var amount decimal.Decimal
		var desc, ref string
		if err := rows.Scan(&id, &date, &amount, &desc, &ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		if desc == "" {
			desc = fmt.Sprintf("Purchase #%d", id)
		}
		if ref != "" {
			desc = desc + " (" + ref + ")"
		}
		events = append(events, LedgerEvent{
			Date:        date,
			Type:        "purchase",
			Description: desc,
			Amount:      amount,
			Debit:       true,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase rows: %w", err)
	}

	events, err = appendPaymentEvents(ctx, tx, events, "supplier_id", supplierID)
	if err != nil {
		return nil, err
	}

	st := FoldLedger(opening, createdAt, events)

	if _, err := tx.Exec(ctx,
		"UPDATE suppliers SET balance = $1 WHERE id = $2", st.Balance, supplierID,
	); err != nil {
		return nil, fmt.Errorf("write back supplier balance: %w", err)
	}
	return st, nil
}

// RecalculateSupplierBalance forces a reconciliation pass and reports the
// cached value it replaced.
func (r *Reconciler) RecalculateSupplierBalance(ctx context.Context, supplierID int) (*BalanceCorrection, error) {
	var before decimal.Decimal
	err := r.pool.QueryRow(ctx, "SELECT balance FROM suppliers WHERE id = $1", supplierID).Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "supplier", ID: strconv.Itoa(supplierID)}
		}
		return nil, fmt.Errorf("load cached supplier balance: %w", err)
	}

	st, err := r.SupplierLedger(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	if !before.Equal(st.Balance) {
		r.log.Info("supplier balance drift corrected",
			zap.Int("supplier_id", supplierID),
			zap.String("before", before.StringFixed(2)),
			zap.String("after", st.Balance.StringFixed(2)))
	}
	return &BalanceCorrection{Before: before, After: st.Balance}, nil
}

// appendPaymentEvents loads the credit events for one entity column. The
// column name is one of two fixed literals chosen by the callers, never
// request input.
func appendPaymentEvents(ctx context.Context, tx pgx.Tx, events []LedgerEvent, column string, id int) ([]LedgerEvent, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT id, payment_date, amount, payment_method, reference_no
		FROM payments
		WHERE %s = $1
		ORDER BY payment_date, id
	`, column), id)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid int
		var date time.Time
		var amount decimal.Decimal
		var method, ref string
		if err := rows.Scan(&pid, &date, &amount, &method, &ref); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		desc := fmt.Sprintf("Payment #%d (%s)", pid, method)
		if ref != "" {
			desc = desc + " " + ref
		}
		events = append(events, LedgerEvent{
			Date:        date,
			Type:        "payment",
			Description: desc,
			Amount:      amount,
			Debit:       false,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return events, nil
}
