// Package totals derives document totals from line items and adjustments.
package totals

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/money"
)

// Compute is pure and deterministic. The composition order is a business rule:
//
//	markup   = subtotal * markup%
//	taxable  = subtotal + markup - discount
//	tax      = taxable * tax%
//	total    = taxable + tax
//	deposit  = total * deposit%
//
// Nothing is rounded and a negative taxable amount is passed through as is.
func Compute(items []domain.LineItem, adj domain.AdjustmentSet) domain.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}

	markup := decimal.Zero
	if adj.Markup.Enabled {
		markup = money.Percent(subtotal, adj.Markup.Percent)
	}

	discount := decimal.Zero
	if adj.Discount.Enabled {
		discount = adj.Discount.Amount
	}

	taxable := subtotal.Add(markup).Sub(discount)

	tax := decimal.Zero
	if adj.Tax.Enabled {
		tax = money.Percent(taxable, adj.Tax.Rate)
	}

	total := subtotal.Add(markup).Sub(discount).Add(tax)

	deposit := decimal.Zero
	if adj.Deposit.Enabled {
		deposit = money.Percent(total, adj.Deposit.Percent)
	}

	return domain.Totals{
		Subtotal:       subtotal,
		MarkupAmount:   markup,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		Total:          total,
		DepositAmount:  deposit,
	}
}

// Display renders every field rounded to two places for presentation.
func Display(t domain.Totals) map[string]string {
	return map[string]string{
		"subtotal":        money.Display(t.Subtotal),
		"markup_amount":   money.Display(t.MarkupAmount),
		"discount_amount": money.Display(t.DiscountAmount),
		"taxable_amount":  money.Display(t.TaxableAmount),
		"tax_amount":      money.Display(t.TaxAmount),
		"total":           money.Display(t.Total),
		"deposit_amount":  money.Display(t.DepositAmount),
	}
}
