package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/clock"
	inventorydomain "github.com/smallbiznis/tillpoint/internal/inventory/domain"
	"github.com/smallbiznis/tillpoint/internal/product/domain"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Movements inventorydomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	movements inventorydomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("product.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		movements: p.Movements,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	barcode := strings.TrimSpace(req.Barcode)
	if barcode == "" {
		return domain.Product{}, domain.ErrInvalidBarcode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrInvalidName
	}
	if req.PriceCents < 0 {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	if req.TaxRate < 0 || req.TaxRate > 1 {
		return domain.Product{}, domain.ErrInvalidTaxRate
	}
	if req.StockQty < 0 {
		return domain.Product{}, domain.ErrInvalidStock
	}

	now := s.clock.Now()
	reorder := req.ReorderLevel
	if reorder <= 0 {
		reorder = 10
	}
	product := domain.Product{
		ID:            s.genID.Generate(),
		Barcode:       barcode,
		Name:          name,
		Description:   req.Description,
		Category:      strings.TrimSpace(req.Category),
		PriceCents:    req.PriceCents,
		CostCents:     req.CostCents,
		StockQuantity: req.StockQty,
		ReorderLevel:  reorder,
		TaxRate:       req.TaxRate,
		IsActive:      true,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, s.db, &product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Product{}, domain.ErrBarcodeExists
		}
		s.log.Error("create product", zap.Error(err))
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProductRequest) (domain.Product, error) {
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Product{}, domain.ErrInvalidID
	}

	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, domain.ErrInvalidName
		}
		product.Name = name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return domain.Product{}, domain.ErrInvalidPrice
		}
		product.PriceCents = *req.PriceCents
	}
	if req.CostCents != nil {
		product.CostCents = *req.CostCents
	}
	if req.ReorderLevel != nil {
		product.ReorderLevel = *req.ReorderLevel
	}
	if req.TaxRate != nil {
		if *req.TaxRate < 0 || *req.TaxRate > 1 {
			return domain.Product{}, domain.ErrInvalidTaxRate
		}
		product.TaxRate = *req.TaxRate
	}
	if req.Active != nil {
		product.IsActive = *req.Active
	}
	product.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		s.log.Error("update product", zap.Error(err))
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (domain.Product, error) {
	id, err := snowflake.ParseString(rawID)
	if err != nil {
		return domain.Product{}, domain.ErrInvalidID
	}
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *product, nil
}

func (s *Service) GetByBarcode(ctx context.Context, barcode string) (domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Product{}, domain.ErrInvalidBarcode
	}
	product, err := s.repo.FindByBarcode(ctx, s.db, barcode)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *product, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProductRequest) ([]domain.Product, error) {
	filter := domain.ListProductRequest{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Barcode:  strings.TrimSpace(req.Barcode),
		Active:   req.Active,
		LowStock: req.LowStock,
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) AdjustStock(ctx context.Context, req domain.AdjustStockRequest) (domain.Product, error) {
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Product{}, domain.ErrInvalidID
	}
	if req.Change == 0 {
		return domain.Product{}, domain.ErrInvalidStock
	}

	var actorID snowflake.ID
	if parsed, err := snowflake.ParseString(strings.TrimSpace(req.ActorID)); err == nil {
		actorID = parsed
	}

	changeType := inventorydomain.ChangeAdjustment
	if req.Change > 0 {
		changeType = inventorydomain.ChangeRestock
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}

		if req.Change > 0 {
			if err := s.repo.IncrementStock(ctx, tx, id, req.Change); err != nil {
				return err
			}
		} else {
			rows, err := s.repo.DecrementStock(ctx, tx, id, -req.Change)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrStockUnderflow
			}
		}

		return s.movements.Append(ctx, tx, &inventorydomain.StockMovement{
			ID:             s.genID.Generate(),
			ProductID:      id,
			ChangeType:     changeType,
			QuantityBefore: product.StockQuantity,
			QuantityChange: req.Change,
			QuantityAfter:  product.StockQuantity + req.Change,
			ReferenceType:  "adjustment",
			Note:           strings.TrimSpace(req.Note),
			ActorID:        actorID,
			CreatedAt:      s.clock.Now(),
		})
	})
	if err != nil {
		return domain.Product{}, err
	}

	updated, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *updated, nil
}
