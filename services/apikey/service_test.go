package apikey

import (
	"context"
	"testing"
	"time"

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

	db := testutil.NewTestDB(t, &APIKey{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t)

	issued, err := svc.Issue(context.Background(), "t1", APIKeyTypeServer, nil)
	require.NoError(t, err)
	require.Contains(t, issued.KeyID, "tak_live_")
	require.NotEmpty(t, issued.Secret)
	require.Equal(t, []string{"*"}, issued.Scopes)

	key, err := svc.Verify(context.Background(), issued.KeyID, issued.Secret)
	require.NoError(t, err)
	require.Equal(t, "t1", key.TenantID)
	require.Equal(t, APIKeyTypeServer, key.KeyType)

	_, err = svc.Verify(context.Background(), issued.KeyID, "not-the-secret")
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnauthorized, errutil.StatusOf(err))
}

func TestIssueSecretShownOnce(t *testing.T) {
	svc := newTestService(t)

	issued, err := svc.Issue(context.Background(), "t1", APIKeyTypePublishable, []string{"catalog:read"})
	require.NoError(t, err)

	// The stored row carries the hash, never the plaintext.
	stored, err := svc.repo.FindOne(context.Background(), &APIKey{KeyID: issued.KeyID})
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotEmpty(t, stored.SecretHash)
	require.NotContains(t, stored.SecretHash, issued.Secret)

	views, err := svc.List(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Empty(t, views[0].Secret)
	require.Equal(t, []string{"catalog:read"}, views[0].Scopes)
}

func TestRevokeStopsVerification(t *testing.T) {
	svc := newTestService(t)

	issued, err := svc.Issue(context.Background(), "t1", APIKeyTypeServer, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), "t1", issued.KeyID))

	stored, err := svc.repo.FindOne(context.Background(), &APIKey{KeyID: issued.KeyID})
	require.NoError(t, err)
	require.Equal(t, string(APIKeyStatusRevoked), stored.Status)
	require.NotNil(t, stored.RevokedAt)

	_, err = svc.Verify(context.Background(), issued.KeyID, issued.Secret)
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnauthorized, errutil.StatusOf(err))
}

func TestRevokeUnknownKey(t *testing.T) {
	svc := newTestService(t)

	err := svc.Revoke(context.Background(), "t1", "tak_live_missing")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestVerifyExpiredKey(t *testing.T) {
	svc := newTestService(t)

	issued, err := svc.Issue(context.Background(), "t1", APIKeyTypeServer, nil)
	require.NoError(t, err)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, svc.repo.Update(context.Background(), issued.ID, map[string]any{
		"expires_at": expired,
	}))

	_, err = svc.Verify(context.Background(), issued.KeyID, issued.Secret)
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnauthorized, errutil.StatusOf(err))
}

func TestBootstrapKeyIsNotPersisted(t *testing.T) {
	svc := newTestService(t)

	key, secret, err := svc.BootstrapKey("t1")
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.Equal(t, APIKeyTypeServer, key.KeyType)
	require.Contains(t, key.KeyID, "tak_live_")

	// The caller persists the record inside its own transaction.
	count, err := svc.repo.Count(context.Background(), &APIKey{TenantID: "t1"})
	require.NoError(t, err)
	require.Zero(t, count)
}
