package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/tillpoint/internal/pricing"
)

type AddItemRequest struct {
	Barcode   string
	ProductID string
	Quantity  int64
}

type UpdateItemRequest struct {
	ItemID   int64
	Quantity int64
}

type Service interface {
	Get(ctx context.Context, session string) (View, error)
	AddItem(ctx context.Context, session string, req AddItemRequest) (View, error)
	UpdateItem(ctx context.Context, session string, req UpdateItemRequest) (View, error)
	RemoveItem(ctx context.Context, session string, itemID int64) (View, error)
	SetDiscount(ctx context.Context, session string, discount pricing.Discount) (View, error)
	Clear(ctx context.Context, session string) error

	// Commit runs fn with the session's cart while holding the session lock,
	// then clears the cart only if fn succeeds. The generation counter bumps
	// on every mutation so idempotency keys can tell one cart from the next.
	Commit(ctx context.Context, session string, fn func(Cart) error) error
}

var (
	ErrCartEmpty         = errors.New("cart_empty")
	ErrItemNotFound      = errors.New("cart_item_not_found")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrProductNotFound   = errors.New("product_not_found")
	ErrProductInactive   = errors.New("product_inactive")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

// Pricer recomputes totals for the current cart contents.
type Pricer interface {
	Compute(lines []pricing.Line, discount pricing.Discount) (pricing.Totals, error)
}
