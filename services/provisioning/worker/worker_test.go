package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/services/provisioning"
	"tenantadmin-controlplane/services/tenant"
	"tenantadmin-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestWorker(t *testing.T) (*Worker, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &tenant.Tenant{})
	w := NewWorker(WorkerParams{
		Config: &config.Config{},
		DB:     db,
	})
	return w, db
}

func payloadTask(t *testing.T, taskType string, p provisioning.Payload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(taskType, raw)
}

func TestHandleDefaultsActivatesTenant(t *testing.T) {
	w, db := newTestWorker(t)

	require.NoError(t, db.Create(&tenant.Tenant{
		ID:     "t1",
		Code:   "T001",
		Slug:   "acme",
		Status: tenant.Provisioning,
	}).Error)

	err := w.HandleDefaults(context.Background(), payloadTask(t, provisioning.TypeDefaults, provisioning.Payload{TenantID: "t1"}))
	require.NoError(t, err)

	var got tenant.Tenant
	require.NoError(t, db.First(&got, "id = ?", "t1").Error)
	require.Equal(t, tenant.Active, got.Status)
}

func TestHandleDefaultsSkipsArchivedTenant(t *testing.T) {
	w, db := newTestWorker(t)

	require.NoError(t, db.Create(&tenant.Tenant{
		ID:     "t1",
		Code:   "T001",
		Slug:   "acme",
		Status: tenant.Archived,
	}).Error)

	err := w.HandleDefaults(context.Background(), payloadTask(t, provisioning.TypeDefaults, provisioning.Payload{TenantID: "t1"}))
	require.NoError(t, err)

	var got tenant.Tenant
	require.NoError(t, db.First(&got, "id = ?", "t1").Error)
	require.Equal(t, tenant.Archived, got.Status)
}

func TestHandleDefaultsMissingTenantSkipsRetry(t *testing.T) {
	w, _ := newTestWorker(t)

	err := w.HandleDefaults(context.Background(), payloadTask(t, provisioning.TypeDefaults, provisioning.Payload{TenantID: "ghost"}))
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestDecodePayloadRejectsEmptyTenant(t *testing.T) {
	w, _ := newTestWorker(t)

	err := w.HandleStorage(context.Background(), payloadTask(t, provisioning.TypeStorage, provisioning.Payload{}))
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleStorageWithoutClientIsNoOp(t *testing.T) {
	w, _ := newTestWorker(t)

	err := w.HandleStorage(context.Background(), payloadTask(t, provisioning.TypeStorage, provisioning.Payload{TenantID: "t1"}))
	require.NoError(t, err)
}
