package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Action scopes what a token may authorize. A token issued for a refund cannot
// approve a void.
type Action string

const (
	ActionRefund          Action = "transaction.refund"
	ActionVoid            Action = "transaction.void"
	ActionDiscountCeiling Action = "discount.override"
)

func (a Action) Valid() bool {
	switch a {
	case ActionRefund, ActionVoid, ActionDiscountCeiling:
		return true
	}
	return false
}

// OverrideToken is a single-use authorization grant. Consumption is a
// conditional update on consumed_at so concurrent spends of the same token
// cannot both win.
type OverrideToken struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Token      string       `gorm:"not null;uniqueIndex" json:"token"`
	Action     Action       `gorm:"not null" json:"action"`
	IssuedBy   snowflake.ID `gorm:"not null;index" json:"issued_by"`
	IssuedName string       `json:"issued_name,omitempty"`
	ExpiresAt  time.Time    `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time   `json:"consumed_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OverrideToken) TableName() string { return "override_tokens" }
