package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	inventorydomain "github.com/smallbiznis/tillpoint/internal/inventory/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() inventorydomain.Repository {
	return &repository{}
}

func (r *repository) Append(ctx context.Context, db *gorm.DB, movement *inventorydomain.StockMovement) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO stock_movements (
			id, product_id, change_type, quantity_before, quantity_change, quantity_after,
			reference_type, reference_id, note, actor_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID,
		movement.ProductID,
		movement.ChangeType,
		movement.QuantityBefore,
		movement.QuantityChange,
		movement.QuantityAfter,
		movement.ReferenceType,
		movement.ReferenceID,
		movement.Note,
		movement.ActorID,
		movement.CreatedAt,
	).Error
}

func (r *repository) ListByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID, limit int) ([]inventorydomain.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var items []inventorydomain.StockMovement
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM stock_movements WHERE product_id = ? ORDER BY id DESC LIMIT ?`,
		productID,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByReference(ctx context.Context, db *gorm.DB, refType, refID string) ([]inventorydomain.StockMovement, error) {
	var items []inventorydomain.StockMovement
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM stock_movements WHERE reference_type = ? AND reference_id = ? ORDER BY id ASC`,
		refType,
		refID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
