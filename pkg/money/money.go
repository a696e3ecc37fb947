// Package money converts between integer minor units (cents) and the
// two-decimal string form used on the wire. All ledger amounts are stored
// as int64 cents; floats only appear at the API boundary.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid_amount")

// RoundHalfUp rounds a fractional cent value half-up to the nearest cent.
func RoundHalfUp(v float64) int64 {
	if v >= 0 {
		return int64(math.Floor(v + 0.5))
	}
	return -int64(math.Floor(-v + 0.5))
}

// FromFloat converts a currency-unit amount (e.g. 12.34) to cents.
func FromFloat(v float64) int64 {
	return RoundHalfUp(v * 100)
}

// ToFloat converts cents to currency units for response payloads.
func ToFloat(cents int64) float64 {
	return float64(cents) / 100
}

// Format renders cents as a two-decimal string, e.g. 1234 -> "12.34".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Parse converts a decimal string with at most two fraction digits to cents.
func Parse(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(value, "-") {
		negative = true
		value = value[1:]
	}

	whole := value
	frac := ""
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		whole = value[:idx]
		frac = value[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	fracCents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := units*100 + fracCents
	if negative {
		cents = -cents
	}
	return cents, nil
}
