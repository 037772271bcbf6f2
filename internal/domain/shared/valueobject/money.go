package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places carried by Money
const MinorUnits = 2

// Money is an amount in the store currency held as integer minor units
// (cents). All arithmetic is exact; rounding happens only where a rate is
// applied, half away from zero.
type Money struct {
	minor int64
}

// Zero is the zero amount
var Zero = Money{}

// ErrAmountOverflow reports an amount that does not fit in int64 minor units
var ErrAmountOverflow = errors.New("amount out of range")

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// NewMoney creates Money from minor units
func NewMoney(minor int64) Money {
	return Money{minor: minor}
}

// NewMoneyFromDecimal rounds d to two places and converts it to Money
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{minor: d.Shift(MinorUnits).Round(0).IntPart()}
}

// ParseMoney parses a decimal string such as "110.00"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoneyFromDecimal(d), nil
}

// ParseMoneyExact parses a decimal string that must not carry sub-cent digits
func ParseMoneyExact(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor := d.Shift(MinorUnits)
	if !minor.IsInteger() {
		return Money{}, fmt.Errorf("invalid amount %q: more than %d decimal places", s, MinorUnits)
	}
	m, err := fromMinorDecimal(minor)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return m, nil
}

func fromMinorDecimal(d decimal.Decimal) (Money, error) {
	r := d.Round(0)
	if r.GreaterThan(maxMinor) || r.LessThan(minMinor) {
		return Money{}, ErrAmountOverflow
	}
	return Money{minor: r.IntPart()}, nil
}

// MustParseMoney is ParseMoney that panics, for constants and tests
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Minor returns the amount in minor units
func (m Money) Minor() int64 {
	return m.minor
}

// Decimal returns the amount as a decimal with two places
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -MinorUnits)
}

func (m Money) IsZero() bool     { return m.minor == 0 }
func (m Money) IsPositive() bool { return m.minor > 0 }
func (m Money) IsNegative() bool { return m.minor < 0 }

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{minor: m.minor + other.minor}
}

// Sub returns m - other
func (m Money) Sub(other Money) Money {
	return Money{minor: m.minor - other.minor}
}

// MulInt returns m * n
func (m Money) MulInt(n int64) Money {
	return Money{minor: m.minor * n}
}

// AddChecked returns m + other, or ErrAmountOverflow if the sum wraps
func (m Money) AddChecked(other Money) (Money, error) {
	sum := m.minor + other.minor
	if (other.minor > 0 && sum < m.minor) || (other.minor < 0 && sum > m.minor) {
		return Money{}, ErrAmountOverflow
	}
	return Money{minor: sum}, nil
}

// MulIntChecked returns m * n, or ErrAmountOverflow if the product wraps
func (m Money) MulIntChecked(n int64) (Money, error) {
	if m.minor == 0 || n == 0 {
		return Zero, nil
	}
	p := m.minor * n
	if p/n != m.minor || (n == -1 && m.minor == math.MinInt64) {
		return Money{}, ErrAmountOverflow
	}
	return Money{minor: p}, nil
}

// MulRatio returns m * num / den rounded to the nearest minor unit.
// den must not be zero.
func (m Money) MulRatio(num, den int64) Money {
	r := decimal.NewFromInt(m.minor).Mul(decimal.NewFromInt(num)).Div(decimal.NewFromInt(den))
	return Money{minor: r.Round(0).IntPart()}
}

// Percent returns m * pct / 100 rounded to the nearest minor unit
func (m Money) Percent(pct decimal.Decimal) Money {
	r := decimal.NewFromInt(m.minor).Mul(pct).Div(decimal.NewFromInt(100))
	return Money{minor: r.Round(0).IntPart()}
}

// PercentChecked is Percent that reports ErrAmountOverflow instead of wrapping
func (m Money) PercentChecked(pct decimal.Decimal) (Money, error) {
	return fromMinorDecimal(decimal.NewFromInt(m.minor).Mul(pct).Div(decimal.NewFromInt(100)))
}

// Neg returns -m
func (m Money) Neg() Money {
	return Money{minor: -m.minor}
}

// Abs returns |m|
func (m Money) Abs() Money {
	if m.minor < 0 {
		return m.Neg()
	}
	return m
}

// Cmp compares m and other: -1, 0 or +1
func (m Money) Cmp(other Money) int {
	switch {
	case m.minor < other.minor:
		return -1
	case m.minor > other.minor:
		return 1
	default:
		return 0
	}
}

func (m Money) Equals(other Money) bool             { return m.minor == other.minor }
func (m Money) LessThan(other Money) bool           { return m.minor < other.minor }
func (m Money) GreaterThan(other Money) bool        { return m.minor > other.minor }
func (m Money) GreaterThanOrEqual(other Money) bool { return m.minor >= other.minor }

// Min returns the smaller of m and other
func (m Money) Min(other Money) Money {
	if other.minor < m.minor {
		return other
	}
	return m
}

// Max returns the larger of m and other
func (m Money) Max(other Money) Money {
	if other.minor > m.minor {
		return other
	}
	return m
}

// WithinTolerance reports whether |m - other| <= tolerance
func (m Money) WithinTolerance(other, tolerance Money) bool {
	return m.Sub(other).Abs().minor <= tolerance.Abs().minor
}

// String renders the amount with two decimal places
func (m Money) String() string {
	return m.Decimal().StringFixed(MinorUnits)
}

// MarshalJSON renders Money as a fixed two-place decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON number.
// Amounts with sub-cent digits are rejected rather than rounded.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	parsed, err := ParseMoneyExact(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores Money as a bigint of minor units
func (m Money) Value() (driver.Value, error) {
	return m.minor, nil
}

// Scan reads a bigint of minor units
func (m *Money) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		m.minor = 0
	case int64:
		m.minor = v
	case int32:
		m.minor = int64(v)
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}

func (m *Money) scanString(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid minor units %q: %w", s, err)
	}
	if !d.IsInteger() {
		return errors.New("money column must hold integer minor units")
	}
	m.minor = d.IntPart()
	return nil
}

// Sum adds up a list of amounts
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
