package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"github.com/smallbiznis/tillpoint/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() ledgerdomain.Repository {
	return &repository{}
}

func (r *repository) Append(ctx context.Context, db *gorm.DB, txn *ledgerdomain.Transaction, items []ledgerdomain.TransactionItem) error {
	if err := db.WithContext(ctx).Create(txn).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ledgerdomain.Transaction, []ledgerdomain.TransactionItem, error) {
	var txn ledgerdomain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM transactions WHERE id = ?`,
		id,
	).Scan(&txn).Error
	if err != nil {
		return nil, nil, err
	}
	if txn.ID == 0 {
		return nil, nil, nil
	}

	items, err := r.items(ctx, db, txn.ID)
	if err != nil {
		return nil, nil, err
	}
	return &txn, items, nil
}

func (r *repository) FindByNumber(ctx context.Context, db *gorm.DB, number string) (*ledgerdomain.Transaction, []ledgerdomain.TransactionItem, error) {
	var txn ledgerdomain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM transactions WHERE number = ?`,
		number,
	).Scan(&txn).Error
	if err != nil {
		return nil, nil, err
	}
	if txn.ID == 0 {
		return nil, nil, nil
	}

	items, err := r.items(ctx, db, txn.ID)
	if err != nil {
		return nil, nil, err
	}
	return &txn, items, nil
}

func (r *repository) items(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) ([]ledgerdomain.TransactionItem, error) {
	var items []ledgerdomain.TransactionItem
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM transaction_items WHERE transaction_id = ? ORDER BY id ASC`,
		transactionID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter ledgerdomain.ListRequest) ([]ledgerdomain.Transaction, string, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 25
	}

	stmt := db.WithContext(ctx).Model(&ledgerdomain.Transaction{})

	if filter.CashierID != "" {
		stmt = stmt.Where("cashier_id = ?", filter.CashierID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.From != nil {
		stmt = stmt.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("created_at < ?", *filter.To)
	}
	if filter.PageToken != "" {
		cursor, err := pagination.DecodeCursor(filter.PageToken)
		if err != nil {
			return nil, "", err
		}
		if cursor.ID != "" {
			stmt = stmt.Where("id < ?", cursor.ID)
		}
	}

	var items []ledgerdomain.Transaction
	if err := stmt.Order("id DESC").Limit(pageSize + 1).Find(&items).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) > pageSize {
		items = items[:pageSize]
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: items[len(items)-1].ID.String()})
		if err != nil {
			return nil, "", err
		}
		next = token
	}
	return items, next, nil
}

func (r *repository) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []ledgerdomain.Status, to ledgerdomain.Status, voidReason string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE transactions
		 SET status = ?, void_reason = CASE WHEN ? <> '' THEN ? ELSE void_reason END,
		     voided_at = CASE WHEN ? = 'voided' THEN ? ELSE voided_at END,
		     updated_at = ?
		 WHERE id = ? AND status IN ?`,
		to,
		voidReason, voidReason,
		to, at,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) InsertRefund(ctx context.Context, db *gorm.DB, refund *ledgerdomain.Refund) error {
	return db.WithContext(ctx).Create(refund).Error
}

func (r *repository) SumRefunded(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM refunds WHERE transaction_id = ?`,
		transactionID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) ListRefunds(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) ([]ledgerdomain.Refund, error) {
	var refunds []ledgerdomain.Refund
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM refunds WHERE transaction_id = ? ORDER BY id ASC`,
		transactionID,
	).Scan(&refunds).Error
	if err != nil {
		return nil, err
	}
	return refunds, nil
}
