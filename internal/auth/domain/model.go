package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleCashier       Role = "cashier"
	RoleManager       Role = "manager"
	RoleAdministrator Role = "administrator"
)

// CanAuthorizeOverride reports whether the role may approve supervised
// operations such as refunds, voids and above-ceiling discounts.
func (r Role) CanAuthorizeOverride() bool {
	return r == RoleManager || r == RoleAdministrator
}

type User struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Username            string       `gorm:"not null;uniqueIndex" json:"username"`
	PasswordHash        string       `gorm:"not null" json:"-"`
	PinHash             *string      `json:"-"`
	FullName            string       `json:"full_name"`
	Role                Role         `gorm:"not null;default:cashier" json:"role"`
	IsActive            bool         `gorm:"not null;default:true" json:"is_active"`
	FailedLoginAttempts int          `gorm:"not null;default:0" json:"-"`
	LastLoginAt         *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Session is a bearer token issued at login. Tokens are ULIDs, opaque to
// clients, and expire server-side.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Token     string       `gorm:"not null;uniqueIndex" json:"token"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time   `json:"revoked_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
