package core

import (
	"retail-ledger/internal/money"

	"github.com/shopspring/decimal"
)

// ItemComputation is the resolved money chain for a single sale line:
// gross → discount → net, plus the per-unit final price persisted on the
// snapshot row.
type ItemComputation struct {
	Gross          decimal.Decimal
	Discount       decimal.Decimal
	Net            decimal.Decimal
	FinalUnitPrice decimal.Decimal
}

// SaleComputation is the sale-level result after item nets are summed.
type SaleComputation struct {
	Subtotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	DiscountPercentage decimal.Decimal
	Total              decimal.Decimal
}

// discountOf evaluates a discount descriptor against a base amount, clamped
// to [0, base]. A discount can never exceed what it discounts.
func discountOf(base decimal.Decimal, dtype DiscountType, value decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch dtype {
	case DiscountPercentage:
		d = money.Percent(base, value)
	case DiscountAmount:
		d = value
	default:
		return decimal.Zero
	}
	return money.Clamp(d, decimal.Zero, base)
}

// ComputeItem resolves the money amounts for one sale line.
//
// submittedFinal, when non-zero, is the caller's per-unit final price. If it
// disagrees with the computed net by more than the tolerance, the final price
// wins and the discount amount is re-derived as gross − qty×finalPrice: the
// discount fields are audit display, the final price is the trusted input.
//
// The per-unit final price is rounded to currency precision and the rounding
// residue folded back into the discount, so qty×FinalUnitPrice always equals
// Net exactly and the snapshot rows reconcile with the sale header to the
// cent.
func ComputeItem(quantity int, originalPrice decimal.Decimal, dtype DiscountType, value, submittedFinal decimal.Decimal) ItemComputation {
	qty := decimal.NewFromInt(int64(quantity))
	gross := qty.Mul(originalPrice)

	disc := discountOf(gross, dtype, value)
	net := gross.Sub(disc)

	if !submittedFinal.IsZero() && !money.Within(submittedFinal.Mul(qty), net) {
		disc = money.Clamp(gross.Sub(submittedFinal.Mul(qty)), decimal.Zero, gross)
		net = gross.Sub(disc)
	}

	// net/qty may not land on a two-decimal unit price. The unit price is
	// authoritative on the snapshot row, so re-derive net and discount from
	// it. finalUnit never exceeds originalPrice: net ≤ gross and rounding a
	// value ≤ a two-decimal bound cannot cross it.
	finalUnit := originalPrice
	if quantity > 0 {
		finalUnit = money.Round(net.Div(qty))
	}
	net = qty.Mul(finalUnit)
	disc = gross.Sub(net)

	return ItemComputation{
		Gross:          money.Round(gross),
		Discount:       money.Round(disc),
		Net:            money.Round(net),
		FinalUnitPrice: finalUnit,
	}
}

// ComputeSale applies the sale-level discount to a subtotal of item nets.
// A discount larger than the subtotal clamps the total to zero: a free sale,
// never a negative liability.
func ComputeSale(subtotal decimal.Decimal, dtype DiscountType, value decimal.Decimal) SaleComputation {
	disc := discountOf(subtotal, dtype, value)
	total := money.NonNegative(subtotal.Sub(disc))

	pct := decimal.Zero
	if dtype == DiscountPercentage {
		pct = value
	} else if !subtotal.IsZero() {
		pct = disc.Div(subtotal).Mul(decimal.NewFromInt(100)).Round(4)
	}

	return SaleComputation{
		Subtotal:           money.Round(subtotal),
		DiscountAmount:     money.Round(disc),
		DiscountPercentage: pct,
		Total:              money.Round(total),
	}
}

// ValidDiscountType reports whether t is one of the accepted descriptors.
// The empty string counts as none for callers that omit the field.
func ValidDiscountType(t DiscountType) bool {
	switch t {
	case "", DiscountNone, DiscountPercentage, DiscountAmount:
		return true
	}
	return false
}
