package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type IssueRequest struct {
	PIN    string
	Action Action
}

type Grant struct {
	ApproverID   string
	ApproverName string
	Action       Action
}

type Service interface {
	// Issue verifies the supervisor PIN and mints a short-lived token scoped
	// to a single action.
	Issue(ctx context.Context, req IssueRequest) (OverrideToken, error)

	// Consume spends the token. A token is consumed even when the guarded
	// operation later fails, so a failed refund cannot be replayed on the
	// same approval.
	Consume(ctx context.Context, token string, action Action) (Grant, error)
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, token *OverrideToken) error
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*OverrideToken, error)

	// MarkConsumed sets consumed_at only when it is still NULL and reports
	// whether this caller won the spend.
	MarkConsumed(ctx context.Context, db *gorm.DB, token string) (bool, error)
}

var (
	ErrInvalidAction     = errors.New("invalid_override_action")
	ErrNotAuthorized     = errors.New("override_not_authorized")
	ErrTokenNotFound     = errors.New("override_token_not_found")
	ErrTokenConsumed     = errors.New("override_token_consumed")
	ErrTokenExpired      = errors.New("override_token_expired")
	ErrTokenWrongAction  = errors.New("override_token_wrong_action")
)
