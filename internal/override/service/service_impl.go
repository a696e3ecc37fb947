package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	"github.com/smallbiznis/tillpoint/internal/clock"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/observability/metrics"
	"github.com/smallbiznis/tillpoint/internal/override/domain"
	"github.com/smallbiznis/tillpoint/internal/providers/pinverify"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	Repo     domain.Repository
	Verifier pinverify.Verifier
	Audit    auditdomain.Service
	Metrics  *metrics.Metrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.Config
	repo     domain.Repository
	verifier pinverify.Verifier
	audit    auditdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("override.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Config,
		repo:     p.Repo,
		verifier: p.Verifier,
		audit:    p.Audit,
		metrics:  p.Metrics,
	}
}

func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) (domain.OverrideToken, error) {
	if !req.Action.Valid() {
		return domain.OverrideToken{}, domain.ErrInvalidAction
	}

	approver, err := s.verifier.Verify(ctx, req.PIN)
	if err != nil {
		return domain.OverrideToken{}, err
	}
	if !approver.Role.CanAuthorizeOverride() {
		s.log.Warn("override denied for role",
			zap.String("username", approver.Username),
			zap.String("role", string(approver.Role)),
		)
		return domain.OverrideToken{}, domain.ErrNotAuthorized
	}

	approverID, err := snowflake.ParseString(approver.UserID)
	if err != nil {
		return domain.OverrideToken{}, domain.ErrNotAuthorized
	}

	now := s.clock.Now()
	token := domain.OverrideToken{
		ID:         s.genID.Generate(),
		Token:      ulid.Make().String(),
		Action:     req.Action,
		IssuedBy:   approverID,
		IssuedName: approver.Username,
		ExpiresAt:  now.Add(s.cfg.OverrideTokenTTL),
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, s.db, &token); err != nil {
		return domain.OverrideToken{}, err
	}

	s.metrics.RecordOverrideIssued(ctx, string(req.Action))
	s.audit.Record(ctx, auditdomain.Entry{
		ActorID:    approverID,
		ActorName:  approver.Username,
		Action:     "override.issue",
		EntityType: "override_token",
		EntityID:   token.Token,
		Detail: map[string]interface{}{
			"action":     string(req.Action),
			"expires_at": token.ExpiresAt,
		},
	})

	return token, nil
}

func (s *Service) Consume(ctx context.Context, rawToken string, action domain.Action) (domain.Grant, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Grant{}, domain.ErrTokenNotFound
	}

	row, err := s.repo.FindByToken(ctx, s.db, rawToken)
	if err != nil {
		return domain.Grant{}, err
	}
	if row == nil {
		return domain.Grant{}, domain.ErrTokenNotFound
	}

	// Spend first. The token burns even if a later check rejects it, so the
	// same approval cannot be retried against a different operation.
	won, err := s.repo.MarkConsumed(ctx, s.db, rawToken)
	if err != nil {
		return domain.Grant{}, err
	}
	if !won {
		return domain.Grant{}, domain.ErrTokenConsumed
	}

	if s.clock.Now().After(row.ExpiresAt) {
		return domain.Grant{}, domain.ErrTokenExpired
	}
	if row.Action != action {
		return domain.Grant{}, domain.ErrTokenWrongAction
	}

	return domain.Grant{
		ApproverID:   row.IssuedBy.String(),
		ApproverName: row.IssuedName,
		Action:       row.Action,
	}, nil
}
