package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// StockLedger mutates product stock counters. The only protection on
// products.stock_quantity is the conditional update guard: the decrement and
// the sufficiency check happen in one statement, so concurrent sales on the
// same product can never drive stock negative — one of them simply affects
// zero rows and fails closed.
type StockLedger struct {
	log *zap.Logger
}

func NewStockLedger(log *zap.Logger) *StockLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &StockLedger{log: log}
}

const decrementStockSQL = `
	UPDATE products
	SET stock_quantity = stock_quantity - $1,
	    total_sold     = total_sold + $1,
	    updated_at     = NOW()
	WHERE id = $2 AND stock_quantity >= $1`

// DecrementTx atomically removes qty units of stock and adds them to the
// cumulative sold counter, inside the caller's transaction. When the guarded
// update affects zero rows it re-reads the row to tell ProductNotFound from
// InsufficientStock. If the re-read shows sufficient stock the guard itself
// raced; one verified retry of the same conditional statement is attempted —
// never an unconditional write.
func (s *StockLedger) DecrementTx(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	tag, err := tx.Exec(ctx, decrementStockSQL, qty, productID)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", productID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	available, err := s.readStock(ctx, tx, productID)
	if err != nil {
		return err
	}
	if available < qty {
		return &InsufficientStockError{ProductID: productID, Available: available, Requested: qty}
	}

	// The guard failed but a fresh read shows enough stock: retry the same
	// conditional statement once.
	s.log.Warn("stock guard raced, retrying conditional decrement",
		zap.String("product_id", productID), zap.Int("requested", qty), zap.Int("available", available))

	tag, err = tx.Exec(ctx, decrementStockSQL, qty, productID)
	if err != nil {
		return fmt.Errorf("retry decrement stock for %s: %w", productID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	available, err = s.readStock(ctx, tx, productID)
	if err != nil {
		return err
	}
	return &InsufficientStockError{ProductID: productID, Available: available, Requested: qty}
}

// IncrementTx reverses both counters, used when a sale is voided or edited.
// Restocking always succeeds, so there is no guard.
func (s *StockLedger) IncrementTx(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $1,
		    total_sold     = GREATEST(total_sold - $1, 0),
		    updated_at     = NOW()
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("increment stock for %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "product", ID: productID}
	}
	return nil
}

func (s *StockLedger) readStock(ctx context.Context, tx pgx.Tx, productID string) (int, error) {
	var available int
	err := tx.QueryRow(ctx,
		"SELECT stock_quantity FROM products WHERE id = $1", productID,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Entity: "product", ID: productID}
		}
		return 0, fmt.Errorf("read stock for %s: %w", productID, err)
	}
	return available, nil
}
