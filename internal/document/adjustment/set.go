// Package adjustment manages the markup, discount, tax and deposit toggles of a document.
package adjustment

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
)

var maxDepositPercent = decimal.NewFromInt(100)

// Set wraps domain.AdjustmentSet with validated setters.
// Turning an adjustment off leaves its magnitude in place.
type Set struct {
	values domain.AdjustmentSet
}

// NewSet returns a set with everything disabled and zero magnitudes.
func NewSet() *Set {
	return &Set{}
}

// NewSetFrom starts from existing values, e.g. configured defaults.
func NewSetFrom(values domain.AdjustmentSet) *Set {
	return &Set{values: values}
}

// SetMarkup sets the markup toggle and percentage. Percentages above 100 are allowed.
func (s *Set) SetMarkup(enabled bool, percent decimal.Decimal) error {
	if percent.IsNegative() {
		return domain.ErrNegativeMagnitude
	}
	s.values.Markup = domain.Markup{Enabled: enabled, Percent: percent}
	return nil
}

// SetDiscount sets the discount toggle and flat amount.
func (s *Set) SetDiscount(enabled bool, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.ErrNegativeMagnitude
	}
	s.values.Discount = domain.Discount{Enabled: enabled, Amount: amount}
	return nil
}

// SetTax sets the tax toggle and rate in percent.
func (s *Set) SetTax(enabled bool, rate decimal.Decimal) error {
	if rate.IsNegative() {
		return domain.ErrNegativeMagnitude
	}
	s.values.Tax = domain.Tax{Enabled: enabled, Rate: rate}
	return nil
}

// SetDeposit sets the deposit toggle and percentage of the final total.
// The percentage must lie in [0, 100].
func (s *Set) SetDeposit(enabled bool, percent decimal.Decimal) error {
	if percent.IsNegative() {
		return domain.ErrNegativeMagnitude
	}
	if percent.GreaterThan(maxDepositPercent) {
		return domain.ErrDepositOutOfRange
	}
	s.values.Deposit = domain.Deposit{Enabled: enabled, Percent: percent}
	return nil
}

// ToggleMarkup flips only the enabled flag.
func (s *Set) ToggleMarkup(enabled bool) { s.values.Markup.Enabled = enabled }

// ToggleDiscount flips only the enabled flag.
func (s *Set) ToggleDiscount(enabled bool) { s.values.Discount.Enabled = enabled }

// ToggleTax flips only the enabled flag.
func (s *Set) ToggleTax(enabled bool) { s.values.Tax.Enabled = enabled }

// ToggleDeposit flips only the enabled flag.
func (s *Set) ToggleDeposit(enabled bool) { s.values.Deposit.Enabled = enabled }

// Values returns a snapshot of the current adjustments.
func (s *Set) Values() domain.AdjustmentSet {
	return s.values
}
