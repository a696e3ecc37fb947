package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type LoginRequest struct {
	Username string
	Password string
}

type LoginResponse struct {
	Token     string
	ExpiresAt string
	User      User
}

type CreateUserRequest struct {
	Username string
	Password string
	PIN      string
	FullName string
	Role     Role
}

type ChangePasswordRequest struct {
	UserID          snowflake.ID
	CurrentPassword string
	NewPassword     string
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (Session, User, error)
	Logout(ctx context.Context, token string) error

	// ChangePassword rotates the caller's own password after re-checking the
	// current one.
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error

	// Authenticate resolves a bearer token to its user, rejecting revoked and
	// expired sessions.
	Authenticate(ctx context.Context, token string) (User, error)

	// VerifyPIN matches a raw PIN against active users that have one set and
	// returns the first match.
	VerifyPIN(ctx context.Context, pin string) (User, error)

	CreateUser(ctx context.Context, req CreateUserRequest) (User, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrInvalidPIN         = errors.New("invalid_pin")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrUsernameExists     = errors.New("username_exists")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidPassword    = errors.New("invalid_password")
)
