package core_test

import (
	"testing"
	"time"

	"retail-ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFoldLedgerOpeningSaleAndPayment(t *testing.T) {
	st := core.FoldLedger(d("1000"), day("2026-01-01"), []core.LedgerEvent{
		{Date: day("2026-01-05"), Type: "sale", Description: "Sale #1", Amount: d("500"), Debit: true},
		{Date: day("2026-01-10"), Type: "payment", Description: "Payment #1 (cash)", Amount: d("300")},
	})

	require.Len(t, st.Entries, 3)
	assert.Equal(t, "opening_balance", st.Entries[0].Type)
	assert.True(t, st.Entries[0].RunningBalance.Equal(d("1000")))
	assert.True(t, st.Entries[1].RunningBalance.Equal(d("1500")))
	assert.True(t, st.Entries[2].RunningBalance.Equal(d("1200")))
	assert.True(t, st.Balance.Equal(d("1200")))
	assert.True(t, st.TotalDebits.Equal(d("1500")))
	assert.True(t, st.TotalCredits.Equal(d("300")))
}

func TestFoldLedgerIdempotent(t *testing.T) {
	events := func() []core.LedgerEvent {
		return []core.LedgerEvent{
			{Date: day("2026-02-03"), Type: "sale", Amount: d("250.50"), Debit: true},
			{Date: day("2026-02-01"), Type: "sale", Amount: d("99.99"), Debit: true},
			{Date: day("2026-02-04"), Type: "payment", Amount: d("150")},
		}
	}

	first := core.FoldLedger(d("10"), day("2026-01-15"), events())
	second := core.FoldLedger(d("10"), day("2026-01-15"), events())
	assert.True(t, first.Balance.Equal(second.Balance))
	require.Equal(t, len(first.Entries), len(second.Entries))
	for i := range first.Entries {
		assert.True(t, first.Entries[i].RunningBalance.Equal(second.Entries[i].RunningBalance), "entry %d", i)
	}
}

// Same-date debits and credits must keep their source order: the loaders
// append sales and purchases before payments, so a sale and a payment on the
// same day fold sale first.
func TestFoldLedgerSameDateKeepsSourceOrder(t *testing.T) {
	st := core.FoldLedger(decimal.Zero, day("2026-03-01"), []core.LedgerEvent{
		{Date: day("2026-03-10"), Type: "sale", Amount: d("400"), Debit: true},
		{Date: day("2026-03-10"), Type: "payment", Amount: d("400")},
	})

	require.Len(t, st.Entries, 3)
	assert.Equal(t, "sale", st.Entries[1].Type)
	assert.Equal(t, "payment", st.Entries[2].Type)
	assert.True(t, st.Entries[1].RunningBalance.Equal(d("400")))
	assert.True(t, st.Entries[2].RunningBalance.IsZero())
	assert.True(t, st.Balance.IsZero())
}

func TestFoldLedgerOpeningEntryAlwaysFirst(t *testing.T) {
	// Events dated before the opening date still fold after the opening row.
	st := core.FoldLedger(d("100"), day("2026-06-01"), []core.LedgerEvent{
		{Date: day("2026-05-20"), Type: "sale", Amount: d("50"), Debit: true},
	})
	require.Len(t, st.Entries, 2)
	assert.Equal(t, "opening_balance", st.Entries[0].Type)
	assert.Equal(t, "sale", st.Entries[1].Type)
	assert.True(t, st.Balance.Equal(d("150")))
}

func TestFoldLedgerCreditOpeningIsNegative(t *testing.T) {
	opening := core.SignedCustomerOpening(d("200"), core.BalanceCredit)
	st := core.FoldLedger(opening, day("2026-01-01"), nil)

	require.Len(t, st.Entries, 1)
	assert.True(t, st.Entries[0].Credit.Equal(d("200")))
	assert.True(t, st.Entries[0].Debit.IsZero())
	assert.True(t, st.Balance.Equal(d("-200")))
}

func TestFoldLedgerBalanceEqualsDebitsMinusCredits(t *testing.T) {
	events := []core.LedgerEvent{
		{Date: day("2026-04-02"), Type: "purchase", Amount: d("1234.56"), Debit: true},
		{Date: day("2026-04-05"), Type: "payment", Amount: d("1000")},
		{Date: day("2026-04-09"), Type: "purchase", Amount: d("76.44"), Debit: true},
		{Date: day("2026-04-09"), Type: "payment", Amount: d("50.05")},
	}
	st := core.FoldLedger(d("500"), day("2026-04-01"), events)
	assert.True(t, st.Balance.Equal(st.TotalDebits.Sub(st.TotalCredits)),
		"balance %s, debits %s, credits %s", st.Balance, st.TotalDebits, st.TotalCredits)
}

func TestSignedOpenings(t *testing.T) {
	assert.True(t, core.SignedCustomerOpening(d("75"), core.BalanceDebit).Equal(d("75")))
	assert.True(t, core.SignedCustomerOpening(d("75"), core.BalanceCredit).Equal(d("-75")))
	assert.True(t, core.SignedSupplierOpening(d("40"), core.BalanceDebit).Equal(d("40")))
	assert.True(t, core.SignedSupplierOpening(d("40"), core.BalanceCredit).Equal(d("-40")))
}
