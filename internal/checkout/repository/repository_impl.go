package repository

import (
	"context"

	checkoutdomain "github.com/smallbiznis/tillpoint/internal/checkout/domain"
	"gorm.io/gorm"
)

type idempotencyRepository struct{}

func NewIdempotencyRepository() checkoutdomain.IdempotencyRepository {
	return &idempotencyRepository{}
}

func (r *idempotencyRepository) Find(ctx context.Context, db *gorm.DB, cashierID, key string) (*checkoutdomain.IdempotencyKey, error) {
	var row checkoutdomain.IdempotencyKey
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM idempotency_keys WHERE cashier_id = ? AND key = ?`,
		cashierID,
		key,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *idempotencyRepository) Insert(ctx context.Context, db *gorm.DB, row *checkoutdomain.IdempotencyKey) error {
	return db.WithContext(ctx).Create(row).Error
}
