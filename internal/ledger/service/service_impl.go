package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("ledger.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, rawID string) (domain.Detail, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return domain.Detail{}, domain.ErrInvalidID
	}

	txn, items, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Detail{}, err
	}
	if txn == nil {
		return domain.Detail{}, domain.ErrNotFound
	}
	return s.detail(ctx, txn, items)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (domain.Detail, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return domain.Detail{}, domain.ErrInvalidID
	}

	txn, items, err := s.repo.FindByNumber(ctx, s.db, number)
	if err != nil {
		return domain.Detail{}, err
	}
	if txn == nil {
		return domain.Detail{}, domain.ErrNotFound
	}
	return s.detail(ctx, txn, items)
}

func (s *Service) detail(ctx context.Context, txn *domain.Transaction, items []domain.TransactionItem) (domain.Detail, error) {
	refunds, err := s.repo.ListRefunds(ctx, s.db, txn.ID)
	if err != nil {
		return domain.Detail{}, err
	}
	return domain.Detail{
		Transaction: *txn,
		Items:       items,
		Refunds:     refunds,
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.Page, error) {
	items, next, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Transactions: items, NextPageToken: next}, nil
}
