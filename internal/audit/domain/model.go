package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    snowflake.ID      `gorm:"index" json:"actor_id"`
	ActorName  string            `json:"actor_name,omitempty"`
	Action     string            `gorm:"not null;index" json:"action"`
	EntityType string            `gorm:"index" json:"entity_type,omitempty"`
	EntityID   string            `gorm:"index" json:"entity_id,omitempty"`
	Detail     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"detail,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
