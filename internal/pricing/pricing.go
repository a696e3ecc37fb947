// Package pricing computes cart and transaction totals. The engine is a pure
// function of line items and a discount spec: no clocks, no storage, so a
// retried checkout always reprices to the same cents.
package pricing

import (
	"errors"

	"github.com/smallbiznis/tillpoint/pkg/money"
)

type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var (
	ErrInvalidDiscountType      = errors.New("invalid_discount_type")
	ErrInvalidDiscountAmount    = errors.New("invalid_discount_amount")
	ErrDiscountRequiresOverride = errors.New("discount_requires_override")
)

// Line is one cart or transaction line.
type Line struct {
	UnitPriceCents int64
	Quantity       int64
	TaxRate        float64
}

// Discount describes the cart-level discount. Amount is a percentage for
// DiscountPercentage and a currency-unit value for DiscountFixed.
type Discount struct {
	Type            DiscountType
	Amount          float64
	ManagerOverride bool
}

type Totals struct {
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
}

// Engine applies the register's discount policy. Discounts above the ceiling
// require a manager override.
type Engine struct {
	maxDiscountPercent float64
}

func NewEngine(maxDiscountPercent float64) *Engine {
	if maxDiscountPercent <= 0 {
		maxDiscountPercent = 100
	}
	return &Engine{maxDiscountPercent: maxDiscountPercent}
}

// Compute derives subtotal, discount, tax and total in cents.
//
// Tax is allocated per line against the post-discount base: each line gives up
// its proportional share of the discount before its tax rate applies, so a
// cart-level discount reduces the taxable base exactly once. All rounding is
// half-up to the cent.
func (e *Engine) Compute(lines []Line, discount Discount) (Totals, error) {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Quantity
	}

	discountCents, err := e.discountCents(subtotal, discount)
	if err != nil {
		return Totals{}, err
	}

	var tax int64
	if subtotal > 0 {
		for _, line := range lines {
			lineTotal := line.UnitPriceCents * line.Quantity
			share := money.RoundHalfUp(float64(lineTotal) * float64(discountCents) / float64(subtotal))
			base := lineTotal - share
			tax += money.RoundHalfUp(float64(base) * line.TaxRate)
		}
	}

	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: discountCents,
		TaxCents:      tax,
		TotalCents:    subtotal - discountCents + tax,
	}, nil
}

func (e *Engine) discountCents(subtotal int64, discount Discount) (int64, error) {
	switch discount.Type {
	case DiscountNone, "":
		return 0, nil
	case DiscountPercentage:
		pct := discount.Amount
		if pct < 0 {
			return 0, ErrInvalidDiscountAmount
		}
		if pct > e.maxDiscountPercent && !discount.ManagerOverride {
			return 0, ErrDiscountRequiresOverride
		}
		if pct > 100 {
			pct = 100
		}
		return money.RoundHalfUp(float64(subtotal) * pct / 100), nil
	case DiscountFixed:
		if discount.Amount < 0 {
			return 0, ErrInvalidDiscountAmount
		}
		cents := money.FromFloat(discount.Amount)
		ceiling := money.RoundHalfUp(float64(subtotal) * e.maxDiscountPercent / 100)
		if cents > ceiling && !discount.ManagerOverride {
			return 0, ErrDiscountRequiresOverride
		}
		if cents > subtotal {
			cents = subtotal
		}
		return cents, nil
	default:
		return 0, ErrInvalidDiscountType
	}
}
