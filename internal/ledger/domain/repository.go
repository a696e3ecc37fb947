package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListRequest struct {
	CashierID string
	Status    Status
	Kind      Kind
	From      *time.Time
	To        *time.Time
	PageToken string
	PageSize  int
}

type Repository interface {
	Append(ctx context.Context, db *gorm.DB, txn *Transaction, items []TransactionItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, []TransactionItem, error)
	FindByNumber(ctx context.Context, db *gorm.DB, number string) (*Transaction, []TransactionItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Transaction, string, error)

	// UpdateStatus transitions status only when the current value is one of
	// from, reporting whether the transition won.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []Status, to Status, voidReason string, at time.Time) (bool, error)

	InsertRefund(ctx context.Context, db *gorm.DB, refund *Refund) error
	SumRefunded(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) (int64, error)
	ListRefunds(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) ([]Refund, error)
}
