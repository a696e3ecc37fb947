package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	"github.com/smallbiznis/tillpoint/internal/clock"
	obscontext "github.com/smallbiznis/tillpoint/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func New(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) {
	detail := datatypes.JSONMap{}
	for k, v := range entry.Detail {
		detail[k] = v
	}

	row := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorID:    entry.ActorID,
		ActorName:  entry.ActorName,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     detail,
		IPAddress:  obscontext.IPAddressFromContext(ctx),
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.Append(ctx, s.db, &row); err != nil {
		s.log.Error("append audit log",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, filter auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
