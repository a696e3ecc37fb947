package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/pricing"
)

// CartItem is one line in a working cart. ID is a per-cart sequence so the
// client can address lines without knowing product ids.
type CartItem struct {
	ID             int64        `json:"id"`
	ProductID      snowflake.ID `json:"product_id"`
	Barcode        string       `json:"barcode"`
	Name           string       `json:"name"`
	UnitPriceCents int64        `json:"unit_price_cents"`
	Quantity       int64        `json:"quantity"`
	TaxRate        float64      `json:"tax_rate"`
}

// Cart is the working state for one cashier session. It lives in memory only;
// nothing is persisted until checkout commits it to the ledger.
type Cart struct {
	SessionID  string           `json:"session_id"`
	Items      []CartItem       `json:"items"`
	Discount   pricing.Discount `json:"discount"`
	Generation int64            `json:"generation"`
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }

func (c Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, pricing.Line{
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TaxRate:        item.TaxRate,
		})
	}
	return lines
}

// View is a cart plus its computed totals, returned to handlers.
type View struct {
	Cart   Cart           `json:"cart"`
	Totals pricing.Totals `json:"totals"`
}
