package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type ListRequest struct {
	Category   string
	PublicOnly bool
}

type UpsertRequest struct {
	Key         string
	Value       any
	Description *string
	Category    *string
	IsPublic    *bool
	ActorID     snowflake.ID
}

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Setting, error)
	Get(ctx context.Context, key string) (Setting, error)

	// Upsert writes a setting, creating it when the key is new. Only
	// administrators reach this through the HTTP layer.
	Upsert(ctx context.Context, req UpsertRequest) (Setting, error)
}

var (
	ErrNotFound      = errors.New("setting_not_found")
	ErrInvalidKey    = errors.New("invalid_setting_key")
	ErrValueRequired = errors.New("setting_value_required")
)
