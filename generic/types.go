/*
Package generic provides the domain-agnostic primitives of the payroll engine.

PURPOSE:
  Money, calendar days, months and day windows are shared by every payroll
  component. Keeping them here lets the leave, payroll and export packages
  agree on arithmetic and date semantics without importing each other.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A monetary quantity with a currency (e.g., 10000.00 SAR)
  - Currency: ISO currency code carried alongside every amount

DESIGN PRINCIPLES:
 1. Precision: Uses decimal.Decimal to avoid floating-point errors
 2. Explicit rounding: Round2 is the only rounding step, applied at the
    points where a figure becomes a persisted or exported number
 3. No silent coercion: parsing helpers return errors instead of zero

USAGE:
  salary := generic.SAR(9000)
  daily := salary.Div(decimal.NewFromInt(30))
  final := daily.Mul(decimal.NewFromInt(24)).Round2() // 7200.00 SAR

SEE ALSO:
  - time.go: TimePoint and Month
  - period.go: Inclusive day windows and overlap
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary quantity with currency
// =============================================================================

type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

type Currency string

const (
	CurrencySAR Currency = "SAR"
)

func NewAmount(value float64, currency Currency) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Currency: currency}
}

func NewAmountFromInt(value int64, currency Currency) Amount {
	return Amount{Value: decimal.NewFromInt(value), Currency: currency}
}

// SAR is shorthand for an amount in Saudi riyals.
func SAR(value float64) Amount { return NewAmount(value, CurrencySAR) }

// ParseAmount parses a decimal string such as "1250.50".
func ParseAmount(s string, currency Currency) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, &InvalidInputError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	return Amount{Value: d, Currency: currency}, nil
}

// MustParseDecimal is for trusted values only (stored columns, literals).
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("generic: invalid decimal %q: %v", s, err))
	}
	return d
}

func (a Amount) Zero() Amount        { return Amount{Value: decimal.Zero, Currency: a.Currency} }
func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Currency: a.pick(b)} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value), Currency: a.pick(b)} }
func (a Amount) Mul(s decimal.Decimal) Amount {
	return Amount{Value: a.Value.Mul(s), Currency: a.Currency}
}
func (a Amount) Div(s decimal.Decimal) Amount {
	return Amount{Value: a.Value.Div(s), Currency: a.Currency}
}
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg(), Currency: a.Currency} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Round2 rounds half away from zero to two decimal places, which is half-up
// for the non-negative figures payroll produces.
func (a Amount) Round2() Amount { return Amount{Value: a.Value.Round(2), Currency: a.Currency} }

// Fixed renders the value with exactly two decimals ("7200.00").
func (a Amount) Fixed() string { return a.Value.StringFixed(2) }

func (a Amount) String() string { return a.Fixed() + " " + string(a.Currency) }

// pick keeps the currency of whichever operand has one, so Zero-valued
// accumulators adopt the currency of the first amount added to them.
func (a Amount) pick(b Amount) Currency {
	if a.Currency != "" {
		return a.Currency
	}
	return b.Currency
}

// Sum adds amounts; an empty slice yields a zero amount in currency.
func Sum(currency Currency, amounts ...Amount) Amount {
	total := Amount{Value: decimal.Zero, Currency: currency}
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
