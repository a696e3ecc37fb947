package domain

import (
	"context"
	"errors"
)

type CreateProductRequest struct {
	Barcode      string
	Name         string
	Description  *string
	Category     string
	PriceCents   int64
	CostCents    int64
	StockQty     int64
	ReorderLevel int64
	TaxRate      float64
}

type UpdateProductRequest struct {
	ID           string
	Name         *string
	Description  *string
	Category     *string
	PriceCents   *int64
	CostCents    *int64
	ReorderLevel *int64
	TaxRate      *float64
	Active       *bool
}

type AdjustStockRequest struct {
	ID      string
	Change  int64
	Note    string
	ActorID string
}

type ListProductRequest struct {
	Name     string
	Category string
	Barcode  string
	Active   *bool
	LowStock bool
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	Update(ctx context.Context, req UpdateProductRequest) (Product, error)
	Get(ctx context.Context, id string) (Product, error)
	GetByBarcode(ctx context.Context, barcode string) (Product, error)
	List(ctx context.Context, req ListProductRequest) ([]Product, error)
	AdjustStock(ctx context.Context, req AdjustStockRequest) (Product, error)
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidBarcode   = errors.New("invalid_barcode")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidTaxRate   = errors.New("invalid_tax_rate")
	ErrInvalidStock     = errors.New("invalid_stock")
	ErrBarcodeExists    = errors.New("barcode_exists")
	ErrNotFound         = errors.New("not_found")
	ErrStockUnderflow   = errors.New("stock_underflow")
)
