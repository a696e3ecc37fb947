package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods receive the handle to run against so callers can pass a
// transaction-scoped *gorm.DB during checkout.
type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByBarcode(ctx context.Context, db *gorm.DB, barcode string) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListProductRequest) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error

	// DecrementStock subtracts qty only when enough stock remains. It returns
	// the number of rows touched: zero means the guard rejected the write.
	DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int64) (int64, error)
	IncrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int64) error
}
