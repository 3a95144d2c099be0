// Package types provides common type aliases and utilities.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kg is a fixed-point mass in kilograms with 2 decimal places (scale = 100).
//
// Rationale:
// - Matches the weighbridge resolution (0.01 kg) without floating point errors
// - Stored as BIGINT in the database (scaled integer)
// - JSON remains a number with up to 2 decimals
type Kg int64

const KgScale int64 = 100

var kgScaleDec = decimal.NewFromInt(KgScale)

// NewKgFromFloat64 converts a float to Kg, rounding half away from zero
// to 2 decimal places.
func NewKgFromFloat64(v float64) Kg {
	return Kg(decimal.NewFromFloat(v).Mul(kgScaleDec).Round(0).IntPart())
}

// NewKgFromString parses a decimal string into Kg. Preferred over float
// input wherever exact values matter.
func NewKgFromString(s string) (Kg, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse kg: %w", err)
	}
	return Kg(d.Mul(kgScaleDec).Round(0).IntPart()), nil
}

// MustKg parses a decimal string into Kg, panics on error. Use only for
// constants and tests.
func MustKg(s string) Kg {
	v, err := NewKgFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (q Kg) Int64Scaled() int64 { return int64(q) }

func (q Kg) Float64() float64 { return float64(q) / float64(KgScale) }

// Decimal returns the exact decimal representation.
func (q Kg) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(q)).Div(kgScaleDec)
}

func (q Kg) IsZero() bool { return q == 0 }

func (q Kg) IsPositive() bool { return q > 0 }

func (q Kg) IsNegative() bool { return q < 0 }

func (q Kg) Neg() Kg { return -q }

func (q Kg) Abs() Kg {
	if q < 0 {
		return -q
	}
	return q
}

// String returns a decimal string with 2 fractional digits.
func (q Kg) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / KgScale
	frac := int64(v) % KgScale
	if neg {
		return fmt.Sprintf("-%d.%02d", intPart, frac)
	}
	return fmt.Sprintf("%d.%02d", intPart, frac)
}

// MarshalJSON encodes Kg as a JSON number, preserving 2 digits.
func (q Kg) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string.
func (q *Kg) UnmarshalJSON(data []byte) error {
	v, err := unmarshalScaled(data)
	if err != nil {
		return err
	}
	*q = Kg(v)
	return nil
}

// Percent is a fixed-point percentage with 2 decimal places (scale = 100).
// Valid business values are within [0, 100] but the type itself does not
// enforce the range; validation belongs to the owning record.
type Percent int64

// NewPercentFromFloat64 converts a float to Percent, rounding half away
// from zero to 2 decimal places.
func NewPercentFromFloat64(v float64) Percent {
	return Percent(decimal.NewFromFloat(v).Mul(kgScaleDec).Round(0).IntPart())
}

// MustPercent parses a decimal string into Percent, panics on error.
func MustPercent(s string) Percent {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return Percent(d.Mul(kgScaleDec).Round(0).IntPart())
}

func (p Percent) Int64Scaled() int64 { return int64(p) }

func (p Percent) Float64() float64 { return float64(p) / float64(KgScale) }

// Decimal returns the exact decimal representation.
func (p Percent) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Div(kgScaleDec)
}

func (p Percent) IsZero() bool { return p == 0 }

// InRange reports whether the percentage lies within [0, 100].
func (p Percent) InRange() bool { return p >= 0 && p <= 100*Percent(KgScale) }

// String returns a decimal string with trailing zeros trimmed ("60.5", "58").
// Matches how SKU labels render percentages.
func (p Percent) String() string {
	return p.Decimal().String()
}

// MarshalJSON encodes Percent as a JSON number.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts either a JSON number or string.
func (p *Percent) UnmarshalJSON(data []byte) error {
	v, err := unmarshalScaled(data)
	if err != nil {
		return err
	}
	*p = Percent(v)
	return nil
}

func unmarshalScaled(data []byte) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}

	s := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity: %w", err)
	}
	return d.Mul(kgScaleDec).Round(0).IntPart(), nil
}

// MulPercent applies a percentage to a mass, rounding half away from zero
// to 2 decimal places: kg × percent / 100.
func MulPercent(q Kg, p Percent) Kg {
	result := decimal.NewFromInt(int64(q)).
		Mul(decimal.NewFromInt(int64(p))).
		Div(decimal.NewFromInt(100 * KgScale)).
		Round(0)
	return Kg(result.IntPart())
}

// RatioPercent computes part/whole×100 as a Percent, rounded to 2 decimal
// places. Returns 0 when whole is not positive (never divides by zero).
func RatioPercent(part, whole Kg) Percent {
	if whole <= 0 {
		return 0
	}
	result := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100 * KgScale)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(0)
	return Percent(result.IntPart())
}
