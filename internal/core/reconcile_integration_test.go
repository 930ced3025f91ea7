package core_test

import (
	"context"
	"testing"

	"retail-ledger/internal/core"
	"retail-ledger/internal/notify"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func cachedBalance(t *testing.T, pool *pgxpool.Pool, table string, id int) decimal.Decimal {
	t.Helper()
	var b decimal.Decimal
	var err error
	switch table {
	case "customers":
		err = pool.QueryRow(context.Background(), "SELECT balance FROM customers WHERE id = $1", id).Scan(&b)
	case "suppliers":
		err = pool.QueryRow(context.Background(), "SELECT balance FROM suppliers WHERE id = $1", id).Scan(&b)
	default:
		t.Fatalf("unknown table %s", table)
	}
	require.NoError(t, err)
	return b
}

func TestCustomerLedger_RebuildsBalance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	rec := core.NewReconciler(pool, log)
	sales := core.NewSaleService(pool, core.NewStockLedger(log), notify.Nop{}, log)
	payments := core.NewPaymentService(pool, rec)

	customerID := 2 // opening 1000 debit

	_, err := sales.CreateSale(ctx, core.SaleInput{
		CustomerID:   &customerID,
		CustomerType: core.CustomerLongTerm,
		Items: []core.SaleItemInput{
			{ProductID: "SKU-001", Quantity: 5, Price: d("90.00")},
		},
	}, core.Cashier{ID: "u-1", Name: "Aye Aye"})
	require.NoError(t, err)

	_, err = payments.CreatePayment(ctx, core.PaymentInput{
		CustomerID: &customerID,
		Amount:     d("300.00"),
	})
	require.NoError(t, err)

	st, err := rec.CustomerLedger(ctx, customerID)
	require.NoError(t, err)

	// 1000 opening + 450 sale − 300 payment = 1150
	require.Len(t, st.Entries, 3)
	assert.Equal(t, "opening_balance", st.Entries[0].Type)
	assert.Equal(t, "sale", st.Entries[1].Type)
	assert.Equal(t, "payment", st.Entries[2].Type)
	assert.True(t, st.Balance.Equal(d("1150.00")), "balance %s", st.Balance)
	assert.True(t, cachedBalance(t, pool, "customers", customerID).Equal(d("1150.00")))

	// Voided sales drop out of the ledger on the next pass.
	saleList, err := sales.ListSales(ctx, core.SaleFilter{CustomerID: &customerID})
	require.NoError(t, err)
	require.Len(t, saleList, 1)
	_, err = sales.VoidSale(ctx, saleList[0].ID)
	require.NoError(t, err)

	st, err = rec.CustomerLedger(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, st.Balance.Equal(d("700.00")), "balance after void %s", st.Balance)
}

func TestPaymentDelete_ReversesBalance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	rec := core.NewReconciler(pool, zaptest.NewLogger(t))
	payments := core.NewPaymentService(pool, rec)

	customerID := 2
	p, err := payments.CreatePayment(ctx, core.PaymentInput{CustomerID: &customerID, Amount: d("250.00")})
	require.NoError(t, err)
	assert.True(t, cachedBalance(t, pool, "customers", customerID).Equal(d("750.00")))

	require.NoError(t, payments.DeletePayment(ctx, p.ID))
	assert.True(t, cachedBalance(t, pool, "customers", customerID).Equal(d("1000.00")))
}

func TestPaymentCreate_RequiresExactlyOneTarget(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	payments := core.NewPaymentService(pool, core.NewReconciler(pool, zaptest.NewLogger(t)))

	customerID, supplierID := 2, 1

	_, err := payments.CreatePayment(ctx, core.PaymentInput{Amount: d("10")})
	assert.ErrorIs(t, err, core.ErrPaymentTarget)

	_, err = payments.CreatePayment(ctx, core.PaymentInput{
		CustomerID: &customerID, SupplierID: &supplierID, Amount: d("10"),
	})
	assert.ErrorIs(t, err, core.ErrPaymentTarget)

	_, err = payments.CreatePayment(ctx, core.PaymentInput{CustomerID: &customerID, Amount: decimal.Zero})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestUpdatePayment_TargetIsImmutable(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	payments := core.NewPaymentService(pool, core.NewReconciler(pool, zaptest.NewLogger(t)))

	customerID, supplierID := 2, 1
	p, err := payments.CreatePayment(ctx, core.PaymentInput{CustomerID: &customerID, Amount: d("100")})
	require.NoError(t, err)

	// Moving the payment to a supplier is rejected.
	_, err = payments.UpdatePayment(ctx, p.ID, core.PaymentInput{SupplierID: &supplierID, Amount: d("100")})
	assert.ErrorIs(t, err, core.ErrPaymentRetarget)

	// So is pointing it at a different customer.
	otherCustomer := 1
	_, err = payments.UpdatePayment(ctx, p.ID, core.PaymentInput{CustomerID: &otherCustomer, Amount: d("100")})
	assert.ErrorIs(t, err, core.ErrPaymentRetarget)

	// Restating the current target, or omitting it, is fine.
	updated, err := payments.UpdatePayment(ctx, p.ID, core.PaymentInput{CustomerID: &customerID, Amount: d("120")})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(d("120")))

	updated, err = payments.UpdatePayment(ctx, p.ID, core.PaymentInput{Amount: d("130")})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(d("130")))
	assert.True(t, cachedBalance(t, pool, "customers", customerID).Equal(d("870.00")))
}

func TestSupplierLedger_PurchasesAndPayments(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	rec := core.NewReconciler(pool, zaptest.NewLogger(t))
	purchases := core.NewPurchaseService(pool, rec)
	payments := core.NewPaymentService(pool, rec)

	supplierID := 1 // opening 500 debit

	_, err := purchases.CreatePurchase(ctx, core.PurchaseInput{
		SupplierID:  supplierID,
		TotalCost:   d("800.00"),
		ReferenceNo: "INV-42",
	})
	require.NoError(t, err)
	assert.True(t, cachedBalance(t, pool, "suppliers", supplierID).Equal(d("1300.00")))

	_, err = payments.CreatePayment(ctx, core.PaymentInput{SupplierID: &supplierID, Amount: d("600.00")})
	require.NoError(t, err)

	st, err := rec.SupplierLedger(ctx, supplierID)
	require.NoError(t, err)
	require.Len(t, st.Entries, 3)
	assert.True(t, st.Balance.Equal(d("700.00")), "balance %s", st.Balance)
	assert.True(t, cachedBalance(t, pool, "suppliers", supplierID).Equal(d("700.00")))
}

func TestRecalculateBalance_CorrectsTamperedCache(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	rec := core.NewReconciler(pool, zaptest.NewLogger(t))

	customerID := 2
	_, err := pool.Exec(ctx, "UPDATE customers SET balance = 9999.99 WHERE id = $1", customerID)
	require.NoError(t, err)

	corr, err := rec.RecalculateCustomerBalance(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, corr.Before.Equal(d("9999.99")))
	assert.True(t, corr.After.Equal(d("1000.00")))
	assert.True(t, cachedBalance(t, pool, "customers", customerID).Equal(d("1000.00")))
}

func TestPurchaseUpdateAndDelete_Reconcile(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	rec := core.NewReconciler(pool, zaptest.NewLogger(t))
	purchases := core.NewPurchaseService(pool, rec)

	supplierID := 1
	p, err := purchases.CreatePurchase(ctx, core.PurchaseInput{SupplierID: supplierID, TotalCost: d("100.00")})
	require.NoError(t, err)
	assert.True(t, cachedBalance(t, pool, "suppliers", supplierID).Equal(d("600.00")))

	_, err = purchases.UpdatePurchase(ctx, p.ID, core.PurchaseInput{SupplierID: supplierID, TotalCost: d("150.00")})
	require.NoError(t, err)
	assert.True(t, cachedBalance(t, pool, "suppliers", supplierID).Equal(d("650.00")))

	require.NoError(t, purchases.DeletePurchase(ctx, p.ID))
	assert.True(t, cachedBalance(t, pool, "suppliers", supplierID).Equal(d("500.00")))
}
