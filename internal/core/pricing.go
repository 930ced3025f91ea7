package core

import (
	"retail-ledger/internal/money"

	"github.com/shopspring/decimal"
)

// ExpectedUnitPrice returns the authoritative price for a product at the
// given customer tier: wholesale_price for long-term/wholesale customers,
// retail_price otherwise.
func ExpectedUnitPrice(p *Product, tier CustomerType) decimal.Decimal {
	if tier.Wholesale() {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// CheckSubmittedPrice validates a client-submitted unit price against the
// tier price. The 0.01 tolerance absorbs two-decimal rounding only; a
// retail-vs-wholesale tier mix-up always exceeds it. Must run server-side
// before any stock mutation.
func CheckSubmittedPrice(p *Product, tier CustomerType, submitted decimal.Decimal) error {
	expected := ExpectedUnitPrice(p, tier)
	if money.Within(expected, submitted) {
		return nil
	}
	return &PriceMismatchError{ProductID: p.ID, Expected: expected, Submitted: submitted}
}
