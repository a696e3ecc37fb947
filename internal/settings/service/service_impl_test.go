package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tillpoint/internal/clock"
	"github.com/smallbiznis/tillpoint/internal/settings/domain"
	"github.com/smallbiznis/tillpoint/internal/settings/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSettingsService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Setting{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.NewRepository(),
	})
	return svc, fake
}

func TestUpsertCreatesAndUpdates(t *testing.T) {
	svc, fake := setupSettingsService(t)

	created, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Key:   "store_name",
		Value: "Corner Deli",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeString, created.ValueType)
	assert.Equal(t, "Corner Deli", created.TypedValue())

	fake.Advance(time.Minute)
	updated, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Key:   "store_name",
		Value: "Corner Deli & Grill",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Corner Deli & Grill", updated.TypedValue())
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpsertInfersValueTypes(t *testing.T) {
	svc, _ := setupSettingsService(t)

	cases := []struct {
		key      string
		value    any
		wantType domain.ValueType
		want     any
	}{
		{"max_discount_percentage", float64(50), domain.TypeInt, int64(50)},
		{"default_tax_rate", 0.08, domain.TypeFloat, 0.08},
		{"enable_manager_override", true, domain.TypeBool, true},
		{"receipt_footer_text", "Thanks!", domain.TypeString, "Thanks!"},
		{"quick_keys", []any{"milk", "bread"}, domain.TypeJSON, []any{"milk", "bread"}},
	}
	for _, tc := range cases {
		setting, err := svc.Upsert(context.Background(), domain.UpsertRequest{Key: tc.key, Value: tc.value})
		require.NoError(t, err, tc.key)
		assert.Equal(t, tc.wantType, setting.ValueType, tc.key)
		assert.Equal(t, tc.want, setting.TypedValue(), tc.key)
	}
}

func TestUpsertValidation(t *testing.T) {
	svc, _ := setupSettingsService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{Key: "  ", Value: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	_, err = svc.Upsert(context.Background(), domain.UpsertRequest{Key: "store_name"})
	assert.ErrorIs(t, err, domain.ErrValueRequired)
}

func TestGetUnknownKey(t *testing.T) {
	svc, _ := setupSettingsService(t)

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFiltersPublicAndCategory(t *testing.T) {
	svc, _ := setupSettingsService(t)

	public := true
	category := "general"
	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Key: "store_name", Value: "Corner Deli", Category: &category, IsPublic: &public,
	})
	require.NoError(t, err)
	security := "security"
	_, err = svc.Upsert(context.Background(), domain.UpsertRequest{
		Key: "max_failed_login_attempts", Value: float64(5), Category: &security,
	})
	require.NoError(t, err)

	all, err := svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	publicOnly, err := svc.List(context.Background(), domain.ListRequest{PublicOnly: true})
	require.NoError(t, err)
	require.Len(t, publicOnly, 1)
	assert.Equal(t, "store_name", publicOnly[0].Key)

	securityOnly, err := svc.List(context.Background(), domain.ListRequest{Category: "security"})
	require.NoError(t, err)
	require.Len(t, securityOnly, 1)
	assert.Equal(t, "max_failed_login_attempts", securityOnly[0].Key)
}
