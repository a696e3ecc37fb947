package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Entry struct {
	ActorID    snowflake.ID
	ActorName  string
	Action     string
	EntityType string
	EntityID   string
	Detail     map[string]interface{}
}

// Service records audit entries. Recording is best effort: a failed write is
// logged but never fails the operation being audited.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, filter ListRequest) ([]AuditLog, error)
}

type ListRequest struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int
}

type Repository interface {
	Append(ctx context.Context, db *gorm.DB, log *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]AuditLog, error)
}
