package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusCompleted         Status = "completed"
	StatusVoided            Status = "voided"
	StatusPartiallyRefunded Status = "partially_refunded"
	StatusRefunded          Status = "refunded"
)

type Kind string

const (
	KindSale   Kind = "sale"
	KindRefund Kind = "refund"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// Transaction is one finalized sale or refund reversal. Rows are never
// updated after insert except for the status column; corrections are new
// rows of KindRefund with negative totals.
type Transaction struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	Number          string            `gorm:"not null;uniqueIndex" json:"number"`
	Kind            Kind              `gorm:"not null;default:sale" json:"kind"`
	Status          Status            `gorm:"not null" json:"status"`
	ReferenceID     *snowflake.ID     `gorm:"index" json:"reference_id,omitempty"`
	CashierID       snowflake.ID      `gorm:"not null;index" json:"cashier_id"`
	CashierName     string            `json:"cashier_name"`
	SubtotalCents   int64             `gorm:"not null" json:"subtotal_cents"`
	DiscountCents   int64             `gorm:"not null" json:"discount_cents"`
	TaxCents        int64             `gorm:"not null" json:"tax_cents"`
	TotalCents      int64             `gorm:"not null" json:"total_cents"`
	PaymentMethod   PaymentMethod     `gorm:"not null" json:"payment_method"`
	TenderedCents   int64             `json:"tendered_cents"`
	ChangeCents     int64             `json:"change_cents"`
	DiscountType    string            `json:"discount_type,omitempty"`
	DiscountAmount  float64           `json:"discount_amount,omitempty"`
	ManagerOverride bool              `json:"manager_override"`
	ApprovedBy      string            `json:"approved_by,omitempty"`
	VoidReason      string            `json:"void_reason,omitempty"`
	VoidedAt        *time.Time        `json:"voided_at,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type TransactionItem struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	TransactionID  snowflake.ID `gorm:"not null;index" json:"transaction_id"`
	ProductID      snowflake.ID `gorm:"not null;index" json:"product_id"`
	Barcode        string       `json:"barcode"`
	Name           string       `json:"name"`
	UnitPriceCents int64        `gorm:"not null" json:"unit_price_cents"`
	Quantity       int64        `gorm:"not null" json:"quantity"`
	LineTotalCents int64        `gorm:"not null" json:"line_total_cents"`
	TaxRate        float64      `json:"tax_rate"`
}

// Refund links a reversal transaction back to its original sale and carries
// the refunded amount for the running partial-refund total.
type Refund struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	TransactionID snowflake.ID `gorm:"not null;index" json:"transaction_id"`
	ReversalID    snowflake.ID `gorm:"not null;index" json:"reversal_id"`
	AmountCents   int64        `gorm:"not null" json:"amount_cents"`
	Reason        string       `gorm:"not null" json:"reason"`
	ApprovedBy    string       `json:"approved_by"`
	CashierID     snowflake.ID `gorm:"index" json:"cashier_id"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
