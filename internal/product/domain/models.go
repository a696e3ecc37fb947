package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a catalog entry. Stock is only decremented or restored by the
// checkout coordinator; the version column backs its optimistic stock guard.
type Product struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	Barcode       string            `gorm:"not null;uniqueIndex" json:"barcode"`
	Name          string            `gorm:"not null" json:"name"`
	Description   *string           `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	PriceCents    int64             `gorm:"not null" json:"price_cents"`
	CostCents     int64             `json:"cost_cents"`
	StockQuantity int64             `gorm:"not null;default:0" json:"stock_quantity"`
	ReorderLevel  int64             `gorm:"not null;default:10" json:"reorder_level"`
	TaxRate       float64           `gorm:"not null;default:0" json:"tax_rate"`
	IsActive      bool              `gorm:"not null;default:true" json:"is_active"`
	Version       int64             `gorm:"not null;default:0" json:"-"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (p Product) NeedsReorder() bool {
	return p.StockQuantity <= p.ReorderLevel
}
