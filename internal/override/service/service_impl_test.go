package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/clock"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/override/domain"
	"github.com/smallbiznis/tillpoint/internal/override/repository"
	"github.com/smallbiznis/tillpoint/internal/providers/pinverify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type verifierStub struct {
	result pinverify.Result
	err    error
}

func (v *verifierStub) Verify(ctx context.Context, pin string) (pinverify.Result, error) {
	if v.err != nil {
		return pinverify.Result{}, v.err
	}
	return v.result, nil
}

type auditStub struct {
	entries []auditdomain.Entry
}

func (a *auditStub) Record(ctx context.Context, entry auditdomain.Entry) {
	a.entries = append(a.entries, entry)
}

func (a *auditStub) List(ctx context.Context, filter auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	return nil, nil
}

func setupOverrideService(t *testing.T, fake *clock.FakeClock, verifier pinverify.Verifier) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.OverrideToken{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Config:   config.Config{OverrideTokenTTL: 15 * time.Minute},
		Repo:     repository.NewRepository(),
		Verifier: verifier,
		Audit:    &auditStub{},
		Metrics:  nil,
	})
}

func managerVerifier(node *snowflake.Node) *verifierStub {
	return &verifierStub{result: pinverify.Result{
		UserID:   node.Generate().String(),
		Username: "manager1",
		Role:     authdomain.RoleManager,
	}}
}

func TestIssueAndConsume(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := setupOverrideService(t, fake, managerVerifier(node))

	token, err := svc.Issue(context.Background(), domain.IssueRequest{PIN: "1234", Action: domain.ActionRefund})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, fake.Now().Add(15*time.Minute), token.ExpiresAt)

	grant, err := svc.Consume(context.Background(), token.Token, domain.ActionRefund)
	require.NoError(t, err)
	assert.Equal(t, "manager1", grant.ApproverName)
	assert.Equal(t, domain.ActionRefund, grant.Action)
}

func TestConsumeIsSingleUse(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := setupOverrideService(t, fake, managerVerifier(node))

	token, err := svc.Issue(context.Background(), domain.IssueRequest{PIN: "1234", Action: domain.ActionVoid})
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), token.Token, domain.ActionVoid)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), token.Token, domain.ActionVoid)
	assert.ErrorIs(t, err, domain.ErrTokenConsumed)
}

func TestConsumeExpiredToken(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := setupOverrideService(t, fake, managerVerifier(node))

	token, err := svc.Issue(context.Background(), domain.IssueRequest{PIN: "1234", Action: domain.ActionRefund})
	require.NoError(t, err)

	fake.Advance(16 * time.Minute)
	_, err = svc.Consume(context.Background(), token.Token, domain.ActionRefund)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	// The expired attempt still burned the token.
	_, err = svc.Consume(context.Background(), token.Token, domain.ActionRefund)
	assert.ErrorIs(t, err, domain.ErrTokenConsumed)
}

func TestConsumeWrongActionBurnsToken(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := setupOverrideService(t, fake, managerVerifier(node))

	token, err := svc.Issue(context.Background(), domain.IssueRequest{PIN: "1234", Action: domain.ActionRefund})
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), token.Token, domain.ActionVoid)
	assert.ErrorIs(t, err, domain.ErrTokenWrongAction)

	_, err = svc.Consume(context.Background(), token.Token, domain.ActionRefund)
	assert.ErrorIs(t, err, domain.ErrTokenConsumed)
}

func TestIssueRejectsCashier(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	verifier := &verifierStub{result: pinverify.Result{
		UserID:   node.Generate().String(),
		Username: "cashier1",
		Role:     authdomain.RoleCashier,
	}}
	svc := setupOverrideService(t, fake, verifier)

	_, err = svc.Issue(context.Background(), domain.IssueRequest{PIN: "1234", Action: domain.ActionRefund})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestIssueRejectsWrongPIN(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	verifier := &verifierStub{err: authdomain.ErrInvalidPIN}
	svc := setupOverrideService(t, fake, verifier)

	_, err := svc.Issue(context.Background(), domain.IssueRequest{PIN: "0000", Action: domain.ActionRefund})
	assert.ErrorIs(t, err, authdomain.ErrInvalidPIN)
}

func TestIssueRejectsUnknownAction(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := setupOverrideService(t, fake, managerVerifier(node))

	_, err = svc.Issue(context.Background(), domain.IssueRequest{PIN: "1234", Action: domain.Action("till.open")})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestConsumeUnknownToken(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := setupOverrideService(t, fake, managerVerifier(node))

	_, err = svc.Consume(context.Background(), "01J0000000000000000000MISS", domain.ActionRefund)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}
