package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Append(ctx context.Context, db *gorm.DB, movement *StockMovement) error
	ListByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID, limit int) ([]StockMovement, error)
	ListByReference(ctx context.Context, db *gorm.DB, refType, refID string) ([]StockMovement, error)
}
