package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// IdempotencyKey pins a client-supplied checkout key to the transaction it
// produced. CartGeneration records which cart the key was first used with so
// a replay against different contents can be rejected.
type IdempotencyKey struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	CashierID      snowflake.ID `gorm:"not null;uniqueIndex:idx_idempotency_cashier_key" json:"cashier_id"`
	Key            string       `gorm:"not null;uniqueIndex:idx_idempotency_cashier_key" json:"key"`
	CartGeneration int64        `gorm:"not null" json:"cart_generation"`
	TransactionID  snowflake.ID `gorm:"not null" json:"transaction_id"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (IdempotencyKey) TableName() string { return "idempotency_keys" }
