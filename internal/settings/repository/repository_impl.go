package repository

import (
	"context"

	settingsdomain "github.com/smallbiznis/tillpoint/internal/settings/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() settingsdomain.Repository {
	return &repository{}
}

func (r *repository) FindByKey(ctx context.Context, db *gorm.DB, key string) (*settingsdomain.Setting, error) {
	var setting settingsdomain.Setting
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM settings WHERE key = ?`,
		key,
	).Scan(&setting).Error
	if err != nil {
		return nil, err
	}
	if setting.ID == 0 {
		return nil, nil
	}
	return &setting, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter settingsdomain.ListRequest) ([]settingsdomain.Setting, error) {
	var items []settingsdomain.Setting
	stmt := db.WithContext(ctx).Model(&settingsdomain.Setting{})

	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.PublicOnly {
		stmt = stmt.Where("is_public = ?", true)
	}

	if err := stmt.Order("key ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, setting *settingsdomain.Setting) error {
	return db.WithContext(ctx).Create(setting).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, setting *settingsdomain.Setting) error {
	return db.WithContext(ctx).Exec(
		`UPDATE settings
		 SET value = ?, value_type = ?, description = ?, category = ?, is_public = ?, updated_by = ?, updated_at = ?
		 WHERE id = ?`,
		setting.Value,
		setting.ValueType,
		setting.Description,
		setting.Category,
		setting.IsPublic,
		setting.UpdatedBy,
		setting.UpdatedAt,
		setting.ID,
	).Error
}
