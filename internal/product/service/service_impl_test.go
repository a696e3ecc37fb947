package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tillpoint/internal/clock"
	inventorydomain "github.com/smallbiznis/tillpoint/internal/inventory/domain"
	inventoryrepo "github.com/smallbiznis/tillpoint/internal/inventory/repository"
	"github.com/smallbiznis/tillpoint/internal/product/domain"
	"github.com/smallbiznis/tillpoint/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupProductService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}, &inventorydomain.StockMovement{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)),
		Repo:      repository.NewRepository(),
		Movements: inventoryrepo.NewRepository(),
	})
	return svc, db
}

func TestCreateProduct(t *testing.T) {
	svc, _ := setupProductService(t)

	product, err := svc.Create(context.Background(), domain.CreateProductRequest{
		Barcode:    "890123",
		Name:       "Milk 1L",
		Category:   "dairy",
		PriceCents: 250,
		StockQty:   40,
		TaxRate:    0.05,
	})
	require.NoError(t, err)
	assert.Equal(t, "890123", product.Barcode)
	assert.True(t, product.IsActive)
	assert.Equal(t, int64(10), product.ReorderLevel)

	found, err := svc.GetByBarcode(context.Background(), "890123")
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := setupProductService(t)

	cases := []struct {
		name string
		req  domain.CreateProductRequest
		want error
	}{
		{"missing barcode", domain.CreateProductRequest{Name: "x", PriceCents: 100}, domain.ErrInvalidBarcode},
		{"missing name", domain.CreateProductRequest{Barcode: "1", PriceCents: 100}, domain.ErrInvalidName},
		{"negative price", domain.CreateProductRequest{Barcode: "1", Name: "x", PriceCents: -1}, domain.ErrInvalidPrice},
		{"tax rate above 1", domain.CreateProductRequest{Barcode: "1", Name: "x", TaxRate: 1.5}, domain.ErrInvalidTaxRate},
		{"negative stock", domain.CreateProductRequest{Barcode: "1", Name: "x", StockQty: -5}, domain.ErrInvalidStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateProductDuplicateBarcode(t *testing.T) {
	svc, _ := setupProductService(t)

	_, err := svc.Create(context.Background(), domain.CreateProductRequest{Barcode: "890123", Name: "a", PriceCents: 100})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), domain.CreateProductRequest{Barcode: "890123", Name: "b", PriceCents: 200})
	assert.ErrorIs(t, err, domain.ErrBarcodeExists)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := setupProductService(t)

	product, err := svc.Create(context.Background(), domain.CreateProductRequest{Barcode: "890123", Name: "old", PriceCents: 100})
	require.NoError(t, err)

	name := "new name"
	price := int64(150)
	active := false
	updated, err := svc.Update(context.Background(), domain.UpdateProductRequest{
		ID:         product.ID.String(),
		Name:       &name,
		PriceCents: &price,
		Active:     &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "new name", updated.Name)
	assert.Equal(t, int64(150), updated.PriceCents)
	assert.False(t, updated.IsActive)
}

func TestAdjustStockRecordsMovement(t *testing.T) {
	svc, db := setupProductService(t)

	product, err := svc.Create(context.Background(), domain.CreateProductRequest{
		Barcode: "890123", Name: "x", PriceCents: 100, StockQty: 5,
	})
	require.NoError(t, err)

	updated, err := svc.AdjustStock(context.Background(), domain.AdjustStockRequest{
		ID:     product.ID.String(),
		Change: 20,
		Note:   "weekly delivery",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.StockQuantity)

	var movements []inventorydomain.StockMovement
	require.NoError(t, db.Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, inventorydomain.ChangeRestock, movements[0].ChangeType)
	assert.Equal(t, int64(5), movements[0].QuantityBefore)
	assert.Equal(t, int64(20), movements[0].QuantityChange)
	assert.Equal(t, int64(25), movements[0].QuantityAfter)
	assert.Equal(t, "weekly delivery", movements[0].Note)
}

func TestAdjustStockUnderflow(t *testing.T) {
	svc, db := setupProductService(t)

	product, err := svc.Create(context.Background(), domain.CreateProductRequest{
		Barcode: "890123", Name: "x", PriceCents: 100, StockQty: 3,
	})
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), domain.AdjustStockRequest{
		ID:     product.ID.String(),
		Change: -5,
		Note:   "shrinkage",
	})
	assert.ErrorIs(t, err, domain.ErrStockUnderflow)

	// The failed adjustment left no movement behind.
	var count int64
	require.NoError(t, db.Model(&inventorydomain.StockMovement{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	current, err := svc.Get(context.Background(), product.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(3), current.StockQuantity)
}

func TestListLowStock(t *testing.T) {
	svc, _ := setupProductService(t)

	_, err := svc.Create(context.Background(), domain.CreateProductRequest{
		Barcode: "low", Name: "low", PriceCents: 100, StockQty: 2, ReorderLevel: 5,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), domain.CreateProductRequest{
		Barcode: "high", Name: "high", PriceCents: 100, StockQty: 50, ReorderLevel: 5,
	})
	require.NoError(t, err)

	products, err := svc.List(context.Background(), domain.ListProductRequest{LowStock: true})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "low", products[0].Barcode)
}
