// Package scheduler runs the periodic housekeeping sweeps a register backend
// accumulates: expired sessions, spent override tokens and aged idempotency
// keys. Sales and stock movements are never touched; those are the ledger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/tillpoint/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config Config `optional:"true"`
}

type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   Config
	clock clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("scheduler"),
		cfg:   p.Config.withDefaults(),
		clock: p.Clock,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) (int64, error)) error {
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	removed, err := fn(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.log.Warn("sweep timed out", zap.String("job", name), zap.Error(err))
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if removed > 0 {
		s.log.Info("sweep removed rows", zap.String("job", name), zap.Int64("rows", removed))
	}
	return nil
}

// RunOnce executes every sweep a single time. Errors are joined so one
// failing sweep does not starve the others.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	err = errors.Join(err, s.runJob(parent, "purge_sessions", s.purgeSessions))
	err = errors.Join(err, s.runJob(parent, "purge_override_tokens", s.purgeOverrideTokens))
	err = errors.Join(err, s.runJob(parent, "purge_idempotency_keys", s.purgeIdempotencyKeys))
	return err
}

// RunForever loops RunOnce until the context is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Error("sweep run failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) purgeSessions(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.cfg.SessionRetention)
	res := s.db.WithContext(ctx).Exec(
		`DELETE FROM sessions WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)`,
		cutoff,
		cutoff,
	)
	return res.RowsAffected, res.Error
}

func (s *Scheduler) purgeOverrideTokens(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.cfg.TokenRetention)
	res := s.db.WithContext(ctx).Exec(
		`DELETE FROM override_tokens WHERE expires_at < ? OR (consumed_at IS NOT NULL AND consumed_at < ?)`,
		cutoff,
		cutoff,
	)
	return res.RowsAffected, res.Error
}

func (s *Scheduler) purgeIdempotencyKeys(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.cfg.IdempotencyRetention)
	res := s.db.WithContext(ctx).Exec(
		`DELETE FROM idempotency_keys WHERE created_at < ?`,
		cutoff,
	)
	return res.RowsAffected, res.Error
}
