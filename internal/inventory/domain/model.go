package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ChangeType string

const (
	ChangeSale       ChangeType = "sale"
	ChangeRefund     ChangeType = "refund"
	ChangeVoid       ChangeType = "void"
	ChangeAdjustment ChangeType = "adjustment"
	ChangeRestock    ChangeType = "restock"
)

// StockMovement is one append-only row per stock change. QuantityBefore and
// QuantityAfter are captured inside the same transaction as the change itself.
type StockMovement struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductID      snowflake.ID `gorm:"not null;index" json:"product_id"`
	ChangeType     ChangeType   `gorm:"not null" json:"change_type"`
	QuantityBefore int64        `gorm:"not null" json:"quantity_before"`
	QuantityChange int64        `gorm:"not null" json:"quantity_change"`
	QuantityAfter  int64        `gorm:"not null" json:"quantity_after"`
	ReferenceType  string       `json:"reference_type,omitempty"`
	ReferenceID    string       `json:"reference_id,omitempty"`
	Note           string       `json:"note,omitempty"`
	ActorID        snowflake.ID `gorm:"index" json:"actor_id"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (StockMovement) TableName() string { return "stock_movements" }
