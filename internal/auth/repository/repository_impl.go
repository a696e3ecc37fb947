package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() authdomain.Repository {
	return &repository{}
}

func (r *repository) CreateUser(ctx context.Context, db *gorm.DB, user *authdomain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repository) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repository) FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM users WHERE username = ?`,
		username,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repository) ListActiveUsersWithPIN(ctx context.Context, db *gorm.DB) ([]authdomain.User, error) {
	var users []authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM users WHERE is_active = true AND pin_hash IS NOT NULL ORDER BY id ASC`,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) UpdateLoginState(ctx context.Context, db *gorm.DB, user *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users
		 SET failed_login_attempts = ?, is_active = ?, last_login_at = ?, updated_at = ?
		 WHERE id = ?`,
		user.FailedLoginAttempts,
		user.IsActive,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	).Error
}

func (r *repository) UpdatePassword(ctx context.Context, db *gorm.DB, user *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	).Error
}

func (r *repository) CreateSession(ctx context.Context, db *gorm.DB, session *authdomain.Session) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindSessionByToken(ctx context.Context, db *gorm.DB, token string) (*authdomain.Session, error) {
	var session authdomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM sessions WHERE token = ?`,
		token,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repository) RevokeSession(ctx context.Context, db *gorm.DB, token string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP WHERE token = ? AND revoked_at IS NULL`,
		token,
	).Error
}
