package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Domain{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestSystemDomain(t *testing.T) {
	svc := newTestService(t)

	d := svc.SystemDomain("t1", "acme", "tenantadmin.app")
	require.Equal(t, "acme.tenantadmin.app", d.Hostname)
	require.Equal(t, System, d.Type)
	require.True(t, d.Verified)
	require.True(t, d.IsPrimary)
}

func TestAddCustomDomain(t *testing.T) {
	svc := newTestService(t)

	view, err := svc.Add(context.Background(), "t1", "Shop.Acme.COM ")
	require.NoError(t, err)
	require.Equal(t, "shop.acme.com", view.Hostname)
	require.Equal(t, Custom.String(), view.Type)
	require.False(t, view.Verified)
	require.NotNil(t, view.VerificationCode)
	require.NotEmpty(t, *view.VerificationCode)
}

func TestAddDuplicateHostname(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Add(context.Background(), "t1", "shop.acme.com")
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), "t2", "shop.acme.com")
	require.Error(t, err)
	require.Equal(t, errutil.StatusConflict, errutil.StatusOf(err))
}

func TestVerifyDomainSuccess(t *testing.T) {
	svc := newTestService(t)
	svc.verify = func(hostname, code string) error { return nil }

	_, err := svc.Add(context.Background(), "t1", "shop.acme.com")
	require.NoError(t, err)

	view, err := svc.Verify(context.Background(), "t1", "shop.acme.com")
	require.NoError(t, err)
	require.True(t, view.Verified)
	require.NotNil(t, view.VerifiedAt)
	require.Equal(t, Active.String(), view.CertificateStatus)
}

func TestVerifyDomainDNSFailure(t *testing.T) {
	svc := newTestService(t)
	svc.verify = func(hostname, code string) error { return errors.New("no TXT record") }

	_, err := svc.Add(context.Background(), "t1", "shop.acme.com")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), "t1", "shop.acme.com")
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnprocessableEntity, errutil.StatusOf(err))
}

func TestVerifyAlreadyVerifiedIsNoOp(t *testing.T) {
	svc := newTestService(t)
	calls := 0
	svc.verify = func(hostname, code string) error {
		calls++
		return nil
	}

	_, err := svc.Add(context.Background(), "t1", "shop.acme.com")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), "t1", "shop.acme.com")
	require.NoError(t, err)

	view, err := svc.Verify(context.Background(), "t1", "shop.acme.com")
	require.NoError(t, err)
	require.True(t, view.Verified)
	require.Equal(t, 1, calls)
}

func TestVerifyUnknownDomain(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify(context.Background(), "t1", "nope.acme.com")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}
