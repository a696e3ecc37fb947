package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tillpoint/internal/cart/domain"
	"github.com/smallbiznis/tillpoint/internal/pricing"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	productrepo "github.com/smallbiznis/tillpoint/internal/product/repository"
	"github.com/smallbiznis/tillpoint/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cartFixture struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func setupCartService(t *testing.T) cartFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&productdomain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Engine:   pricing.NewEngine(20),
		Products: productrepo.NewRepository(),
		Locker:   ratelimit.NewLocker(nil, zap.NewNop()),
	})
	return cartFixture{svc: svc, db: db, node: node}
}

func (f cartFixture) addProduct(t *testing.T, barcode string, priceCents, stock int64, taxRate float64) productdomain.Product {
	t.Helper()
	product := productdomain.Product{
		ID:            f.node.Generate(),
		Barcode:       barcode,
		Name:          "product " + barcode,
		PriceCents:    priceCents,
		StockQuantity: stock,
		TaxRate:       taxRate,
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(&product).Error)
	return product
}

func TestAddItemByBarcode(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 1000, 10, 0.05)

	view, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)

	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, int64(2), view.Cart.Items[0].Quantity)
	assert.Equal(t, int64(2000), view.Totals.SubtotalCents)
	assert.Equal(t, int64(100), view.Totals.TaxCents)
	assert.Equal(t, int64(2100), view.Totals.TotalCents)
}

func TestAddItemMergesSameProduct(t *testing.T) {
	f := setupCartService(t)
	product := f.addProduct(t, "890123", 500, 10, 0)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)
	view, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{ProductID: product.ID.String(), Quantity: 3})
	require.NoError(t, err)

	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, int64(5), view.Cart.Items[0].Quantity)
}

func TestAddItemChecksStock(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 500, 3, 0)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := setupCartService(t)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "nope", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAddItemInactiveProduct(t *testing.T) {
	f := setupCartService(t)
	product := f.addProduct(t, "890123", 500, 10, 0)
	require.NoError(t, f.db.Model(&productdomain.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrProductInactive)
}

func TestUpdateItemToZeroRemovesLine(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 500, 10, 0)

	view, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)

	view, err = f.svc.UpdateItem(context.Background(), "till-1", domain.UpdateItemRequest{ItemID: view.Cart.Items[0].ID, Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 1000, 10, 0)

	view, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123"})
	require.NoError(t, err)

	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, int64(1), view.Cart.Items[0].Quantity)

	_, err = f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 500, 10, 0)

	// Removing from an empty cart succeeds and returns the snapshot.
	view, err := f.svc.RemoveItem(context.Background(), "till-1", 42)
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)

	view, err = f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)
	itemID := view.Cart.Items[0].ID

	view, err = f.svc.RemoveItem(context.Background(), "till-1", itemID)
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)

	// A repeat of the same remove is still a success.
	view, err = f.svc.RemoveItem(context.Background(), "till-1", itemID)
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
}

func TestMutationsBumpGeneration(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 1000, 10, 0)

	view, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 1})
	require.NoError(t, err)
	afterAdd := view.Cart.Generation

	view, err = f.svc.SetDiscount(context.Background(), "till-1", pricing.Discount{Type: pricing.DiscountPercentage, Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, afterAdd+1, view.Cart.Generation)

	view, err = f.svc.RemoveItem(context.Background(), "till-1", view.Cart.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, afterAdd+2, view.Cart.Generation)
}

func TestCartsAreIsolatedPerSession(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 500, 10, 0)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)

	view, err := f.svc.Get(context.Background(), "till-2")
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
}

func TestSetDiscountWithinCeiling(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 1000, 10, 0)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.SetDiscount(context.Background(), "till-1", pricing.Discount{Type: pricing.DiscountPercentage, Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(100), view.Totals.DiscountCents)
	assert.Equal(t, int64(900), view.Totals.TotalCents)
}

func TestSetDiscountAboveCeilingNeedsOverride(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 1000, 10, 0)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.SetDiscount(context.Background(), "till-1", pricing.Discount{Type: pricing.DiscountPercentage, Amount: 50})
	assert.ErrorIs(t, err, pricing.ErrDiscountRequiresOverride)

	view, err := f.svc.SetDiscount(context.Background(), "till-1", pricing.Discount{
		Type: pricing.DiscountPercentage, Amount: 50, ManagerOverride: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), view.Totals.DiscountCents)
}

func TestCommitResetsCartAndBumpsGeneration(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 500, 10, 0)

	view, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)
	before := view.Cart.Generation

	var committed domain.Cart
	err = f.svc.Commit(context.Background(), "till-1", func(cart domain.Cart) error {
		committed = cart
		return nil
	})
	require.NoError(t, err)
	require.Len(t, committed.Items, 1)

	view, err = f.svc.Get(context.Background(), "till-1")
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
	assert.Equal(t, before+1, view.Cart.Generation)
}

func TestCommitKeepsCartWhenCallbackFails(t *testing.T) {
	f := setupCartService(t)
	f.addProduct(t, "890123", 500, 10, 0)

	_, err := f.svc.AddItem(context.Background(), "till-1", domain.AddItemRequest{Barcode: "890123", Quantity: 2})
	require.NoError(t, err)

	boom := fmt.Errorf("payment declined")
	err = f.svc.Commit(context.Background(), "till-1", func(domain.Cart) error { return boom })
	assert.ErrorIs(t, err, boom)

	view, err := f.svc.Get(context.Background(), "till-1")
	require.NoError(t, err)
	assert.Len(t, view.Cart.Items, 1)
}

func TestCommitEmptyCart(t *testing.T) {
	f := setupCartService(t)

	err := f.svc.Commit(context.Background(), "till-1", func(domain.Cart) error { return nil })
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}
