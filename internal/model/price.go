package model

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fraction digits kept for prices.
const PriceScale = 2

// ErrInvalidPrice is returned for price values that are not decimal numbers.
var ErrInvalidPrice = errors.New("invalid price")

// maxPrice mirrors a decimal(10,2) column: at most eight integer digits.
var maxPrice = decimal.New(1, 8)

// Price is a decimal amount with two fraction digits. The zero value is an
// unset price; Valid reports whether a value was supplied.
type Price struct {
	d     decimal.Decimal
	valid bool
}

// NewPriceFromCents builds a price from its integer number of cents.
func NewPriceFromCents(cents int64) Price {
	return Price{d: decimal.New(cents, -PriceScale), valid: true}
}

// ParsePrice parses a decimal string and rounds it half away from zero to two
// fraction digits.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("%w %q: %v", ErrInvalidPrice, s, err)
	}
	return Price{d: d.Round(PriceScale), valid: true}, nil
}

// Valid reports whether the price was set.
func (p Price) Valid() bool { return p.valid }

// IsPositive reports whether the price is strictly greater than zero.
func (p Price) IsPositive() bool { return p.valid && p.d.IsPositive() }

// TooLarge reports whether the price exceeds the storable range.
func (p Price) TooLarge() bool { return p.valid && p.d.GreaterThanOrEqual(maxPrice) }

// Cents returns the price as an integer number of cents.
func (p Price) Cents() int64 { return p.d.Shift(PriceScale).IntPart() }

// String formats the price with exactly two fraction digits.
func (p Price) String() string { return p.d.StringFixed(PriceScale) }

// MarshalJSON encodes the price as a quoted decimal string, e.g. "15.00".
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (p *Price) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Price{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	*p = Price{d: d.Round(PriceScale), valid: true}
	return nil
}
