package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/clock"
	"github.com/smallbiznis/tillpoint/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settings.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Setting, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) Get(ctx context.Context, key string) (domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Setting{}, domain.ErrInvalidKey
	}

	setting, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return domain.Setting{}, err
	}
	if setting == nil {
		return domain.Setting{}, domain.ErrNotFound
	}
	return *setting, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (domain.Setting, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return domain.Setting{}, domain.ErrInvalidKey
	}
	if req.Value == nil {
		return domain.Setting{}, domain.ErrValueRequired
	}

	value, valueType := domain.EncodeValue(req.Value)
	now := s.clock.Now()

	existing, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return domain.Setting{}, err
	}

	if existing == nil {
		setting := domain.Setting{
			ID:        s.genID.Generate(),
			Key:       key,
			Value:     value,
			ValueType: valueType,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Description != nil {
			setting.Description = *req.Description
		}
		if req.Category != nil {
			setting.Category = *req.Category
		}
		if req.IsPublic != nil {
			setting.IsPublic = *req.IsPublic
		}
		if req.ActorID != 0 {
			actor := req.ActorID
			setting.UpdatedBy = &actor
		}
		if err := s.repo.Create(ctx, s.db, &setting); err != nil {
			return domain.Setting{}, err
		}
		s.log.Info("setting created", zap.String("key", key))
		return setting, nil
	}

	existing.Value = value
	existing.ValueType = valueType
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Category != nil {
		existing.Category = *req.Category
	}
	if req.IsPublic != nil {
		existing.IsPublic = *req.IsPublic
	}
	if req.ActorID != 0 {
		actor := req.ActorID
		existing.UpdatedBy = &actor
	}
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return domain.Setting{}, err
	}
	s.log.Info("setting updated", zap.String("key", key))
	return *existing, nil
}
