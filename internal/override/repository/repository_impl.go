package repository

import (
	"context"

	overridedomain "github.com/smallbiznis/tillpoint/internal/override/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() overridedomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, token *overridedomain.OverrideToken) error {
	return db.WithContext(ctx).Create(token).Error
}

func (r *repository) FindByToken(ctx context.Context, db *gorm.DB, token string) (*overridedomain.OverrideToken, error) {
	var row overridedomain.OverrideToken
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM override_tokens WHERE token = ?`,
		token,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repository) MarkConsumed(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE override_tokens
		 SET consumed_at = CURRENT_TIMESTAMP
		 WHERE token = ? AND consumed_at IS NULL`,
		token,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
