// Package seed provisions the accounts and demo data a fresh install needs
// to be usable before anyone configures it.
package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	settingsdomain "github.com/smallbiznis/tillpoint/internal/settings/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type defaultUser struct {
	username string
	password string
	pin      string
	fullName string
	role     authdomain.Role
}

var defaultUsers = []defaultUser{
	{"admin", "admin12345", "9999", "Administrator", authdomain.RoleAdministrator},
	{"manager", "manager12345", "1234", "Store Manager", authdomain.RoleManager},
	{"cashier", "cashier12345", "", "Cashier", authdomain.RoleCashier},
}

// EnsureDefaultUsers creates the stock accounts when the user table is empty.
// Passwords are defaults and should be rotated on first login.
func EnsureDefaultUsers(db *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := db.Model(&authdomain.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, du := range defaultUsers {
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(du.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		var pinHash *string
		if du.pin != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(du.pin), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			hashed := string(h)
			pinHash = &hashed
		}

		user := authdomain.User{
			ID:           genID.Generate(),
			Username:     du.username,
			PasswordHash: string(passwordHash),
			PinHash:      pinHash,
			FullName:     du.fullName,
			Role:         du.role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	}
	return nil
}

type defaultSetting struct {
	key         string
	value       string
	valueType   settingsdomain.ValueType
	description string
	category    string
	isPublic    bool
}

var defaultSettings = []defaultSetting{
	{"max_failed_login_attempts", "5", settingsdomain.TypeInt, "Maximum failed login attempts before account lockout", "security", false},
	{"session_timeout_hours", "8", settingsdomain.TypeInt, "Session timeout in hours", "security", false},
	{"default_tax_rate", "0", settingsdomain.TypeFloat, "Default tax rate (0.18 = 18%)", "tax", false},
	{"store_name", "Tillpoint Store", settingsdomain.TypeString, "Store name for receipts and reports", "general", true},
	{"receipt_footer_text", "Thank you for your business!", settingsdomain.TypeString, "Footer text on receipts", "general", false},
	{"enable_manager_override", "true", settingsdomain.TypeBool, "Enable manager override for restricted actions", "security", false},
	{"max_discount_percentage", "50", settingsdomain.TypeInt, "Maximum discount percentage allowed", "general", false},
}

// EnsureDefaultSettings seeds store settings the first time the table is
// empty. Values changed through the API are never overwritten.
func EnsureDefaultSettings(db *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := db.Model(&settingsdomain.Setting{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, ds := range defaultSettings {
		setting := settingsdomain.Setting{
			ID:          genID.Generate(),
			Key:         ds.key,
			Value:       ds.value,
			ValueType:   ds.valueType,
			Description: ds.description,
			Category:    ds.category,
			IsPublic:    ds.isPublic,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := db.Create(&setting).Error; err != nil {
			return err
		}
	}
	return nil
}

type demoProduct struct {
	barcode    string
	name       string
	category   string
	priceCents int64
	costCents  int64
	stock      int64
	taxRate    float64
}

var demoCatalog = []demoProduct{
	{"8901030865278", "Whole Milk 1L", "dairy", 349, 220, 120, 0},
	{"8901030865285", "Sourdough Loaf", "bakery", 599, 310, 35, 0},
	{"0123456789012", "Espresso Beans 500g", "coffee", 1499, 820, 60, 0.05},
	{"0123456789029", "Cold Brew Bottle", "coffee", 449, 190, 80, 0.05},
	{"5012345678900", "Paper Towels 6pk", "household", 899, 540, 45, 0.08},
	{"5012345678917", "Dish Soap 500ml", "household", 379, 160, 70, 0.08},
}

// EnsureDemoCatalog loads sample products for evaluation setups.
func EnsureDemoCatalog(db *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := db.Model(&productdomain.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, dp := range demoCatalog {
		product := productdomain.Product{
			ID:            genID.Generate(),
			Barcode:       dp.barcode,
			Name:          dp.name,
			Category:      dp.category,
			PriceCents:    dp.priceCents,
			CostCents:     dp.costCents,
			StockQuantity: dp.stock,
			ReorderLevel:  10,
			TaxRate:       dp.taxRate,
			IsActive:      true,
			Metadata:      datatypes.JSONMap{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := db.Create(&product).Error; err != nil {
			return err
		}
	}
	return nil
}
