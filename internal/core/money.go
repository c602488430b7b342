// Package core holds the domain model of the ledger: accounts, categories,
// transactions, budgets, monetary amounts, budget windows and alert levels.
package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in integer cents. All arithmetic happens on
// cents; decimals only appear at the parse/format boundary.
type Money struct {
	Cents int64
}

var oneHundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string ("12.34", also "12,34") into Money,
// rounding half-up to two decimal places. Negative and zero amounts are
// rejected: transaction and budget amounts are stored as non-negative
// magnitudes with the sign implied by their type.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(oneHundred).Round(0)
	if !cents.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func normalizeDecimal(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ',':
			out = append(out, '.')
		case ' ', '\t':
			// tolerated around the number
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// Decimal returns the amount as a two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units for display and percentage math.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other. The result may be negative (e.g. budget overrun).
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Cents > 0
}

// String formats the amount with two decimal places, e.g. "12.34" or "-0.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Currency formats the amount with a currency code prefix, e.g. "BRL 12.34".
func (m Money) Currency(code string) string {
	if code == "" {
		return m.String()
	}
	return fmt.Sprintf("%s %s", code, m.String())
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
