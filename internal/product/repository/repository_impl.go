package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() productdomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, product *productdomain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*productdomain.Product, error) {
	var product productdomain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM products WHERE id = ?`,
		id,
	).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	return &product, nil
}

func (r *repository) FindByBarcode(ctx context.Context, db *gorm.DB, barcode string) (*productdomain.Product, error) {
	var product productdomain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM products WHERE barcode = ?`,
		barcode,
	).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter productdomain.ListProductRequest) ([]productdomain.Product, error) {
	var items []productdomain.Product
	stmt := db.WithContext(ctx).Model(&productdomain.Product{})

	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.Barcode != "" {
		stmt = stmt.Where("barcode = ?", filter.Barcode)
	}
	if filter.Active != nil {
		stmt = stmt.Where("is_active = ?", *filter.Active)
	}
	if filter.LowStock {
		stmt = stmt.Where("stock_quantity <= reorder_level")
	}

	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, product *productdomain.Product) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET name = ?, description = ?, category = ?, price_cents = ?, cost_cents = ?,
		     reorder_level = ?, tax_rate = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		product.Name,
		product.Description,
		product.Category,
		product.PriceCents,
		product.CostCents,
		product.ReorderLevel,
		product.TaxRate,
		product.IsActive,
		product.UpdatedAt,
		product.ID,
	).Error
}

func (r *repository) DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int64) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock_quantity = stock_quantity - ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND stock_quantity >= ?`,
		qty,
		id,
		qty,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) IncrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock_quantity = stock_quantity + ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty,
		id,
	).Error
}
