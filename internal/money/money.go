// Package money holds the decimal helpers shared by the document engine.
//
// Amounts are carried as decimal.Decimal end to end. Rounding happens only in
// Display, never while totals are being derived.
package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of fractional digits shown to users.
const DisplayPlaces int32 = 2

// Bounds on accepted input. Values outside them are treated as unparseable so
// arithmetic on user input stays small.
const (
	maxInputLen = 64
	maxDigits   = 30
	minExponent = -12
	maxExponent = 12
)

var (
	ErrInvalidNumber = errors.New("invalid_number")

	hundred = decimal.NewFromInt(100)
)

// Parse parses raw into a decimal within the accepted precision and magnitude.
func Parse(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" || len(value) > maxInputLen {
		return decimal.Zero, ErrInvalidNumber
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	if parsed.IsZero() {
		return decimal.Zero, nil
	}
	if exp := parsed.Exponent(); exp < minExponent || exp > maxExponent {
		return decimal.Zero, ErrInvalidNumber
	}
	if parsed.NumDigits() > maxDigits {
		return decimal.Zero, ErrInvalidNumber
	}
	return parsed, nil
}

// Coerce parses user input into a decimal. Anything that does not parse is
// treated as zero so an in-progress edit never blocks the form.
func Coerce(raw string) decimal.Decimal {
	parsed, err := Parse(raw)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// CoerceNonNegative behaves like Coerce and additionally maps negatives to zero.
func CoerceNonNegative(raw string) decimal.Decimal {
	return ClampNonNegative(Coerce(raw))
}

// ClampNonNegative returns zero for negative values.
func ClampNonNegative(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// CoerceDays parses a whole number of days. Fractions are truncated, invalid
// or negative input becomes zero.
func CoerceDays(raw string) int {
	days := CoerceNonNegative(raw)
	if days.GreaterThan(decimal.NewFromInt(maxDays)) {
		return maxDays
	}
	return int(days.IntPart())
}

// maxDays keeps derived dates inside the range time.Time handles comfortably.
const maxDays = 36500

// Percent returns base * pct / 100.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Round rounds half away from zero to the display precision.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(DisplayPlaces)
}

// Display renders value with exactly two fractional digits.
func Display(value decimal.Decimal) string {
	return Round(value).StringFixed(DisplayPlaces)
}

// Input is a raw numeric field as typed by a user. It unmarshals from either a
// JSON number or a JSON string and keeps the original text so coercion stays
// in one place.
type Input string

// UnmarshalJSON accepts numbers, strings and null.
func (i *Input) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*i = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*i = Input(s)
		return nil
	}
	*i = Input(trimmed)
	return nil
}

// String returns the raw text.
func (i Input) String() string {
	return string(i)
}

// IsSet reports whether anything was supplied.
func (i Input) IsSet() bool {
	return strings.TrimSpace(string(i)) != ""
}
