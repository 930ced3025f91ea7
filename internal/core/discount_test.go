package core_test

import (
	"testing"

	"retail-ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeItem_PercentageDiscount(t *testing.T) {
	// 2 × 100 with 10% off: gross 200, discount 20, net 180
	got := core.ComputeItem(2, d("100"), core.DiscountPercentage, d("10"), decimal.Zero)

	assert.True(t, got.Gross.Equal(d("200")), "gross = %s", got.Gross)
	assert.True(t, got.Discount.Equal(d("20")), "discount = %s", got.Discount)
	assert.True(t, got.Net.Equal(d("180")), "net = %s", got.Net)
	assert.True(t, got.FinalUnitPrice.Equal(d("90")), "final unit = %s", got.FinalUnitPrice)
}

func TestComputeItem_FixedAmountDiscount(t *testing.T) {
	got := core.ComputeItem(3, d("50"), core.DiscountAmount, d("30"), decimal.Zero)

	assert.True(t, got.Gross.Equal(d("150")))
	assert.True(t, got.Discount.Equal(d("30")))
	assert.True(t, got.Net.Equal(d("120")))
	assert.True(t, got.FinalUnitPrice.Equal(d("40")))
}

func TestComputeItem_DiscountClampedToGross(t *testing.T) {
	// A 500 fixed discount on a 100 gross clamps to 100: free line, never negative.
	got := core.ComputeItem(1, d("100"), core.DiscountAmount, d("500"), decimal.Zero)

	assert.True(t, got.Discount.Equal(d("100")))
	assert.True(t, got.Net.IsZero())
}

func TestComputeItem_NoDiscount(t *testing.T) {
	got := core.ComputeItem(4, d("25.50"), core.DiscountNone, decimal.Zero, decimal.Zero)

	assert.True(t, got.Gross.Equal(d("102")))
	assert.True(t, got.Discount.IsZero())
	assert.True(t, got.Net.Equal(d("102")))
	assert.True(t, got.FinalUnitPrice.Equal(d("25.50")))
}

func TestComputeItem_FinalPriceOverridesDiscountFields(t *testing.T) {
	// Caller claims 10% off but submits a final price of 85/unit. The final
	// price wins; discount is recomputed as gross − qty×final = 200 − 170 = 30.
	got := core.ComputeItem(2, d("100"), core.DiscountPercentage, d("10"), d("85"))

	assert.True(t, got.FinalUnitPrice.Equal(d("85")), "final unit = %s", got.FinalUnitPrice)
	assert.True(t, got.Discount.Equal(d("30")), "discount = %s", got.Discount)
	assert.True(t, got.Net.Equal(d("170")), "net = %s", got.Net)
}

func TestComputeItem_UnevenDiscountReconcilesExactly(t *testing.T) {
	// 7 × 10 with a 1.00 fixed discount: 69/7 has no exact two-decimal unit
	// price. The rounded unit price is authoritative and the residue folds
	// into the discount, so qty×final always equals net to the cent.
	got := core.ComputeItem(7, d("10"), core.DiscountAmount, d("1"), decimal.Zero)

	assert.True(t, got.FinalUnitPrice.Equal(d("9.86")), "final unit = %s", got.FinalUnitPrice)
	assert.True(t, got.Net.Equal(d("69.02")), "net = %s", got.Net)
	assert.True(t, got.Discount.Equal(d("0.98")), "discount = %s", got.Discount)

	qty := decimal.NewFromInt(7)
	assert.True(t, got.FinalUnitPrice.Mul(qty).Equal(got.Net),
		"qty×final %s must equal net %s", got.FinalUnitPrice.Mul(qty), got.Net)
	assert.True(t, got.Discount.Add(got.Net).Equal(got.Gross),
		"discount %s + net %s must equal gross %s", got.Discount, got.Net, got.Gross)
	assert.True(t, got.FinalUnitPrice.LessThanOrEqual(d("10")))
}

func TestComputeItem_PercentageRoundingReconcilesExactly(t *testing.T) {
	// 3 × 9.99 at 10%: net 26.973 rounds to a 8.99 unit price; 3×8.99 = 26.97.
	got := core.ComputeItem(3, d("9.99"), core.DiscountPercentage, d("10"), decimal.Zero)

	assert.True(t, got.FinalUnitPrice.Equal(d("8.99")))
	assert.True(t, got.Net.Equal(d("26.97")))
	assert.True(t, got.Discount.Equal(d("3.00")))
	assert.True(t, got.FinalUnitPrice.Mul(decimal.NewFromInt(3)).Equal(got.Net))
}

func TestComputeItem_ConsistentFinalPriceKeepsDiscount(t *testing.T) {
	// Submitted final agrees with computed net within 0.01: caller fields stand.
	got := core.ComputeItem(2, d("100"), core.DiscountPercentage, d("10"), d("90"))

	assert.True(t, got.Discount.Equal(d("20")))
	assert.True(t, got.Net.Equal(d("180")))
}

func TestComputeSale_AmountLargerThanSubtotalClampsToZero(t *testing.T) {
	got := core.ComputeSale(d("180"), core.DiscountAmount, d("300"))

	assert.True(t, got.Total.IsZero(), "total = %s", got.Total)
	assert.True(t, got.DiscountAmount.Equal(d("180")), "discount clamps to subtotal, got %s", got.DiscountAmount)
}

func TestComputeSale_Percentage(t *testing.T) {
	got := core.ComputeSale(d("400"), core.DiscountPercentage, d("25"))

	assert.True(t, got.DiscountAmount.Equal(d("100")))
	assert.True(t, got.Total.Equal(d("300")))
	assert.True(t, got.DiscountPercentage.Equal(d("25")))
}

func TestComputeSale_None(t *testing.T) {
	got := core.ComputeSale(d("99.99"), core.DiscountNone, decimal.Zero)

	assert.True(t, got.DiscountAmount.IsZero())
	assert.True(t, got.Total.Equal(d("99.99")))
}

func TestExpectedUnitPrice_Tiers(t *testing.T) {
	p := &core.Product{ID: "SKU-1", RetailPrice: d("120"), WholesalePrice: d("100")}

	assert.True(t, core.ExpectedUnitPrice(p, core.CustomerRetail).Equal(d("120")))
	assert.True(t, core.ExpectedUnitPrice(p, core.CustomerLongTerm).Equal(d("100")))
	assert.True(t, core.ExpectedUnitPrice(p, core.CustomerWholesale).Equal(d("100")))
}

func TestCheckSubmittedPrice_RetailPriceForLongTermCustomerRejected(t *testing.T) {
	p := &core.Product{ID: "SKU-1", RetailPrice: d("120"), WholesalePrice: d("100")}

	err := core.CheckSubmittedPrice(p, core.CustomerLongTerm, d("120"))
	require.Error(t, err)

	var pm *core.PriceMismatchError
	require.ErrorAs(t, err, &pm)
	assert.Equal(t, "SKU-1", pm.ProductID)
	assert.True(t, pm.Expected.Equal(d("100")))
	assert.True(t, pm.Submitted.Equal(d("120")))
}

func TestCheckSubmittedPrice_ToleranceAbsorbsRounding(t *testing.T) {
	p := &core.Product{ID: "SKU-1", RetailPrice: d("33.33"), WholesalePrice: d("30")}

	assert.NoError(t, core.CheckSubmittedPrice(p, core.CustomerRetail, d("33.34")))
	assert.NoError(t, core.CheckSubmittedPrice(p, core.CustomerRetail, d("33.32")))
	assert.Error(t, core.CheckSubmittedPrice(p, core.CustomerRetail, d("33.35")))
}
