package repository

import (
	"context"

	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() auditdomain.Repository {
	return &repository{}
}

func (r *repository) Append(ctx context.Context, db *gorm.DB, log *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Create(log).Error
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	stmt := db.WithContext(ctx).Model(&auditdomain.AuditLog{})
	if filter.Action != "" {
		stmt = stmt.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		stmt = stmt.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		stmt = stmt.Where("entity_id = ?", filter.EntityID)
	}

	var items []auditdomain.AuditLog
	if err := stmt.Order("id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
