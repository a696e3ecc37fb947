package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	checkoutdomain "github.com/smallbiznis/tillpoint/internal/checkout/domain"
	"github.com/smallbiznis/tillpoint/internal/clock"
	overridedomain "github.com/smallbiznis/tillpoint/internal/override/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupScheduler(t *testing.T, fake *clock.FakeClock) (*Scheduler, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&authdomain.Session{},
		&overridedomain.OverrideToken{},
		&checkoutdomain.IdempotencyKey{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	sched, err := New(Params{DB: db, Log: zap.NewNop(), Clock: fake})
	require.NoError(t, err)
	return sched, db, node
}

func TestRunOncePurgesExpiredRows(t *testing.T) {
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	sched, db, node := setupScheduler(t, fake)

	userID := node.Generate()
	stale := now.Add(-48 * time.Hour)
	live := now.Add(4 * time.Hour)

	require.NoError(t, db.Create(&authdomain.Session{
		ID: node.Generate(), Token: "OLD", UserID: userID, ExpiresAt: stale, CreatedAt: stale,
	}).Error)
	require.NoError(t, db.Create(&authdomain.Session{
		ID: node.Generate(), Token: "LIVE", UserID: userID, ExpiresAt: live, CreatedAt: now,
	}).Error)

	consumedAt := stale
	require.NoError(t, db.Create(&overridedomain.OverrideToken{
		ID: node.Generate(), Token: "SPENT", Action: overridedomain.ActionRefund,
		IssuedBy: userID, ExpiresAt: stale.Add(15 * time.Minute), ConsumedAt: &consumedAt, CreatedAt: stale,
	}).Error)
	require.NoError(t, db.Create(&overridedomain.OverrideToken{
		ID: node.Generate(), Token: "FRESH", Action: overridedomain.ActionRefund,
		IssuedBy: userID, ExpiresAt: now.Add(15 * time.Minute), CreatedAt: now,
	}).Error)

	require.NoError(t, db.Create(&checkoutdomain.IdempotencyKey{
		ID: node.Generate(), CashierID: userID, Key: "old", TransactionID: node.Generate(), CreatedAt: stale,
	}).Error)
	require.NoError(t, db.Create(&checkoutdomain.IdempotencyKey{
		ID: node.Generate(), CashierID: userID, Key: "new", TransactionID: node.Generate(), CreatedAt: now,
	}).Error)

	require.NoError(t, sched.RunOnce(context.Background()))

	var sessions []authdomain.Session
	require.NoError(t, db.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, "LIVE", sessions[0].Token)

	var tokens []overridedomain.OverrideToken
	require.NoError(t, db.Find(&tokens).Error)
	require.Len(t, tokens, 1)
	assert.Equal(t, "FRESH", tokens[0].Token)

	var keys []checkoutdomain.IdempotencyKey
	require.NoError(t, db.Find(&keys).Error)
	require.Len(t, keys, 1)
	assert.Equal(t, "new", keys[0].Key)
}

func TestRunOnceKeepsRowsInsideRetention(t *testing.T) {
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	sched, db, node := setupScheduler(t, fake)

	// Expired an hour ago: still inside the 24h retention window.
	recent := now.Add(-time.Hour)
	require.NoError(t, db.Create(&authdomain.Session{
		ID: node.Generate(), Token: "RECENT", UserID: node.Generate(), ExpiresAt: recent, CreatedAt: recent,
	}).Error)

	require.NoError(t, sched.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&authdomain.Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A day later the sweep takes it.
	fake.Advance(25 * time.Hour)
	require.NoError(t, sched.RunOnce(context.Background()))
	require.NoError(t, db.Model(&authdomain.Session{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
