// Package money implements the fixed-scale decimal arithmetic used
// everywhere a balance, transfer amount, or ledger entry is represented.
// All values are held at scale 2 (two decimal digits); intermediate
// computations may use a wider internal scale but are always rounded
// back down with round-half-to-even before being compared or persisted.
package money

import (
	"database/sql/driver"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// canonicalPattern is the wire format spec: an optional leading minus,
// at least one integer digit, and up to two decimal digits.
var canonicalPattern = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)

// Scale is the number of digits kept after the decimal point in every
// persisted or compared Amount.
const Scale = 2

// internalScale is used for intermediate multiplication/division (e.g.
// interest accrual) before rounding back down to Scale.
const internalScale = 10

// Amount is a scale-2 decimal value. The zero value is not valid; use
// Zero() or one of the parsing constructors.
type Amount struct {
	d decimal.Decimal
}

// Zero returns the additive identity at scale 2.
func Zero() Amount {
	return Amount{d: decimal.NewFromInt(0)}
}

// Parse parses a canonical decimal string ("900.00", "-1.50", "100") into
// an Amount at scale 2. It rejects malformed strings, and NaN/Inf can
// never arise since decimal.Decimal has no such representation.
func Parse(s string) (Amount, error) {
	if !canonicalPattern.MatchString(s) {
		return Amount{}, fmt.Errorf("money: %q is not a canonical decimal amount", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Amount{d: d.RoundBank(Scale)}, nil
}

// FromDecimal wraps an already-parsed decimal.Decimal, rounding it down
// to scale 2 with round-half-to-even. Used for internal computations that
// need to hand a value back to callers expecting an Amount.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.RoundBank(Scale)}
}

// Decimal exposes the underlying decimal.Decimal for computations that
// need a wider scale (e.g. interest rate multiplication) than Amount
// itself permits.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders the canonical two-decimal representation, e.g. "900.00".
func (a Amount) String() string {
	return a.d.StringFixedBank(Scale)
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// Cmp compares two amounts: -1 if a<b, 0 if a==b, 1 if a>b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether two amounts represent the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// GreaterThanOrEqual reports whether a >= b.
func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.d.GreaterThanOrEqual(b.d)
}

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// Add returns a+b, rounded to scale 2 with round-half-to-even. At scale 2
// addition is exact, so the rounding step is defensive only.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d).RoundBank(Scale)}
}

// Sub returns a-b, rounded to scale 2 with round-half-to-even.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d).RoundBank(Scale)}
}

// Mul multiplies at internal scale and rounds the result down to scale 2
// with round-half-to-even. Used by the interest calculator, where the
// multiplier is a rate rather than another Amount.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return Amount{d: a.d.Mul(factor).Round(internalScale).RoundBank(Scale)}
}

// Value implements driver.Valuer so an Amount can be written directly by
// database/sql as its canonical string form.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner, accepting the numeric/text forms Postgres
// returns for a NUMERIC(20,2) column.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero()
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case float64:
		*a = FromDecimal(decimal.NewFromFloat(v))
		return nil
	default:
		return fmt.Errorf("money: cannot scan %T into Amount", src)
	}
}

// MarshalJSON renders the amount as a JSON string in canonical form, so
// API responses never carry a floating-point-shaped number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted canonical string or a bare
// numeric literal, matching what different client encoders may send.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
