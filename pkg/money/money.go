// Package money holds monetary amounts with a fixed scale of two decimals.
package money

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

const scale = 2

// Amount is always rounded to two decimals, half away from zero (HALF_UP for
// the non-negative values the services deal in).
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{d: decimal.Zero}

func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.Round(scale)}
}

func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -scale)}
}

func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MustParse is for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Add(b Amount) Amount { return FromDecimal(a.d.Add(b.d)) }

func (a Amount) MulInt(n int) Amount { return FromDecimal(a.d.Mul(decimal.NewFromInt(int64(n)))) }

// MulRate multiplies by a rate and rounds the product to two decimals.
func (a Amount) MulRate(rate decimal.Decimal) Amount { return FromDecimal(a.d.Mul(rate)) }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// Cents is used by gateways that take minor units.
func (a Amount) Cents() int64 { return a.d.Shift(scale).IntPart() }

func (a Amount) String() string { return a.d.StringFixed(scale) }

func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MarshalJSON renders a JSON number with exactly two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both a JSON number and a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*a = Zero
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	*a = FromDecimal(d)
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}
