package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*User, error)
	ListActiveUsersWithPIN(ctx context.Context, db *gorm.DB) ([]User, error)
	UpdateLoginState(ctx context.Context, db *gorm.DB, user *User) error
	UpdatePassword(ctx context.Context, db *gorm.DB, user *User) error

	CreateSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByToken(ctx context.Context, db *gorm.DB, token string) (*Session, error)
	RevokeSession(ctx context.Context, db *gorm.DB, token string) error
}
