package money_test

import (
	"testing"

	"retail-ledger/internal/money"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWithin(t *testing.T) {
	a := decimal.NewFromFloat(100.00)

	assert.True(t, money.Within(a, decimal.NewFromFloat(100.00)))
	assert.True(t, money.Within(a, decimal.NewFromFloat(100.01)))
	assert.True(t, money.Within(a, decimal.NewFromFloat(99.99)))
	assert.False(t, money.Within(a, decimal.NewFromFloat(100.02)))
	assert.False(t, money.Within(a, decimal.NewFromFloat(99.98)))
}

func TestClamp(t *testing.T) {
	lo := decimal.Zero
	hi := decimal.NewFromInt(200)

	assert.True(t, money.Clamp(decimal.NewFromInt(-5), lo, hi).Equal(lo))
	assert.True(t, money.Clamp(decimal.NewFromInt(500), lo, hi).Equal(hi))
	assert.True(t, money.Clamp(decimal.NewFromInt(42), lo, hi).Equal(decimal.NewFromInt(42)))
}

func TestPercent(t *testing.T) {
	got := money.Percent(decimal.NewFromInt(200), decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(20)), "10%% of 200 should be 20, got %s", got)
}

func TestNonNegative(t *testing.T) {
	assert.True(t, money.NonNegative(decimal.NewFromInt(-3)).IsZero())
	assert.True(t, money.NonNegative(decimal.NewFromInt(3)).Equal(decimal.NewFromInt(3)))
}
