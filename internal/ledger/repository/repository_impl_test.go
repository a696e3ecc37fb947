package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ledgerdomain.Transaction{},
		&ledgerdomain.TransactionItem{},
		&ledgerdomain.Refund{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return db, node
}

func saleTxn(node *snowflake.Node, number string, cashier snowflake.ID, total int64, at time.Time) ledgerdomain.Transaction {
	return ledgerdomain.Transaction{
		ID:            node.Generate(),
		Number:        number,
		Kind:          ledgerdomain.KindSale,
		Status:        ledgerdomain.StatusCompleted,
		CashierID:     cashier,
		SubtotalCents: total,
		TotalCents:    total,
		PaymentMethod: ledgerdomain.PaymentCash,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	db, node := setupLedger(t)
	repo := NewRepository()
	cashier := node.Generate()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		txn := saleTxn(node, fmt.Sprintf("TXN-%04d", i), cashier, 1000, at)
		require.NoError(t, repo.Append(context.Background(), db, &txn, nil))
	}

	first, next, err := repo.List(context.Background(), db, ledgerdomain.ListRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)
	assert.Equal(t, "TXN-0004", first[0].Number)

	second, next2, err := repo.List(context.Background(), db, ledgerdomain.ListRequest{PageSize: 2, PageToken: next})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "TXN-0002", second[0].Number)
	require.NotEmpty(t, next2)

	last, next3, err := repo.List(context.Background(), db, ledgerdomain.ListRequest{PageSize: 2, PageToken: next2})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "TXN-0000", last[0].Number)
	assert.Empty(t, next3)
}

func TestListFilters(t *testing.T) {
	db, node := setupLedger(t)
	repo := NewRepository()
	alice := node.Generate()
	bob := node.Generate()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := saleTxn(node, "TXN-A", alice, 1000, at)
	b := saleTxn(node, "TXN-B", bob, 2000, at)
	b.Status = ledgerdomain.StatusVoided
	require.NoError(t, repo.Append(context.Background(), db, &a, nil))
	require.NoError(t, repo.Append(context.Background(), db, &b, nil))

	byCashier, _, err := repo.List(context.Background(), db, ledgerdomain.ListRequest{CashierID: alice.String()})
	require.NoError(t, err)
	require.Len(t, byCashier, 1)
	assert.Equal(t, "TXN-A", byCashier[0].Number)

	byStatus, _, err := repo.List(context.Background(), db, ledgerdomain.ListRequest{Status: ledgerdomain.StatusVoided})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "TXN-B", byStatus[0].Number)
}

func TestUpdateStatusIsConditional(t *testing.T) {
	db, node := setupLedger(t)
	repo := NewRepository()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	txn := saleTxn(node, "TXN-A", node.Generate(), 1000, at)
	require.NoError(t, repo.Append(context.Background(), db, &txn, nil))

	won, err := repo.UpdateStatus(context.Background(), db, txn.ID,
		[]ledgerdomain.Status{ledgerdomain.StatusCompleted},
		ledgerdomain.StatusVoided, "till test", at)
	require.NoError(t, err)
	assert.True(t, won)

	// A second void loses the race on status.
	won, err = repo.UpdateStatus(context.Background(), db, txn.ID,
		[]ledgerdomain.Status{ledgerdomain.StatusCompleted},
		ledgerdomain.StatusVoided, "again", at)
	require.NoError(t, err)
	assert.False(t, won)

	current, _, err := repo.FindByID(context.Background(), db, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.StatusVoided, current.Status)
	assert.Equal(t, "till test", current.VoidReason)
}

func TestSumRefunded(t *testing.T) {
	db, node := setupLedger(t)
	repo := NewRepository()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	txn := saleTxn(node, "TXN-A", node.Generate(), 5000, at)
	require.NoError(t, repo.Append(context.Background(), db, &txn, nil))

	total, err := repo.SumRefunded(context.Background(), db, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	for _, amount := range []int64{1000, 500} {
		require.NoError(t, repo.InsertRefund(context.Background(), db, &ledgerdomain.Refund{
			ID:            node.Generate(),
			TransactionID: txn.ID,
			ReversalID:    node.Generate(),
			AmountCents:   amount,
			Reason:        "test",
			CreatedAt:     at,
		}))
	}

	total, err = repo.SumRefunded(context.Background(), db, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), total)
}
