package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/auth/repository"
	"github.com/smallbiznis/tillpoint/internal/clock"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuthService(t *testing.T, fake *clock.FakeClock) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Config: config.Config{
			SessionTTL:      8 * time.Hour,
			MaxFailedLogins: 3,
		},
		Repo: repository.NewRepository(),
	})
	return svc, db
}

func createTestUser(t *testing.T, svc domain.Service, username, password, pin string, role domain.Role) domain.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Username: username,
		Password: password,
		PIN:      pin,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestLoginIssuesSession(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	session, user, err := svc.Login(context.Background(), domain.LoginRequest{
		Username: "cashier1",
		Password: "cashier12345",
	})
	require.NoError(t, err)
	assert.Equal(t, "cashier1", user.Username)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, fake.Now().Add(8*time.Hour), session.ExpiresAt)

	authed, err := svc.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	_, _, err := svc.Login(context.Background(), domain.LoginRequest{
		Username: "cashier1",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginLocksAccountAfterRepeatedFailures(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "wrong"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	// Third failure trips the lock.
	_, _, err := svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrAccountLocked)

	// The right password no longer helps.
	_, _, err = svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "cashier12345"})
	assert.ErrorIs(t, err, domain.ErrAccountLocked)
}

func TestLoginResetsFailureCountOnSuccess(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "wrong"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
	_, _, err := svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "cashier12345"})
	require.NoError(t, err)

	// The counter starts over, so two more bad attempts do not lock.
	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "wrong"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	session, _, err := svc.Login(context.Background(), domain.LoginRequest{
		Username: "cashier1",
		Password: "cashier12345",
	})
	require.NoError(t, err)

	fake.Advance(8*time.Hour + time.Minute)
	_, err = svc.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestLogoutRevokesSession(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	session, _, err := svc.Login(context.Background(), domain.LoginRequest{
		Username: "cashier1",
		Password: "cashier12345",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.Token))
	_, err = svc.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestChangePassword(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	user := createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	err := svc.ChangePassword(context.Background(), domain.ChangePasswordRequest{
		UserID: user.ID, CurrentPassword: "wrong", NewPassword: "freshsecret99",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), domain.ChangePasswordRequest{
		UserID: user.ID, CurrentPassword: "cashier12345", NewPassword: "tiny",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	err = svc.ChangePassword(context.Background(), domain.ChangePasswordRequest{
		UserID: user.ID, CurrentPassword: "cashier12345", NewPassword: "freshsecret99",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "cashier12345"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), domain.LoginRequest{Username: "cashier1", Password: "freshsecret99"})
	require.NoError(t, err)
}

func TestVerifyPIN(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)
	manager := createTestUser(t, svc, "manager1", "manager12345", "4321", domain.RoleManager)
	createTestUser(t, svc, "cashier1", "cashier12345", "", domain.RoleCashier)

	user, err := svc.VerifyPIN(context.Background(), "4321")
	require.NoError(t, err)
	assert.Equal(t, manager.ID, user.ID)

	_, err = svc.VerifyPIN(context.Background(), "0000")
	assert.ErrorIs(t, err, domain.ErrInvalidPIN)

	_, err = svc.VerifyPIN(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidPIN)
}

func TestCreateUserValidation(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupAuthService(t, fake)

	_, err := svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Username: "short", Password: "tiny", Role: domain.RoleCashier,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Username: "nobody", Password: "longenough", Role: domain.Role("owner"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	createTestUser(t, svc, "dup", "longenough", "", domain.RoleCashier)
	_, err = svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Username: "dup", Password: "longenough", Role: domain.RoleCashier,
	})
	assert.ErrorIs(t, err, domain.ErrUsernameExists)
}
