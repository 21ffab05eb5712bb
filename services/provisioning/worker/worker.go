package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/repository"
	"tenantadmin-controlplane/services/provisioning"
	"tenantadmin-controlplane/services/tenant"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Worker executes the provisioning tasks enqueued by tenant creation.
type Worker struct {
	cfg     *config.Config
	storage *minio.Client
	tenants repository.Repository[tenant.Tenant]
}

type WorkerParams struct {
	fx.In
	Config  *config.Config
	DB      *gorm.DB
	Storage *minio.Client `optional:"true"`
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		cfg:     p.Config,
		storage: p.Storage,
		tenants: repository.ProvideStore[tenant.Tenant](p.DB),
	}
}

func registerHandlers(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(provisioning.TypeStorage, w.HandleStorage)
	mux.HandleFunc(provisioning.TypeDefaults, w.HandleDefaults)
}

func decodePayload(t *asynq.Task) (provisioning.Payload, error) {
	var p provisioning.Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return provisioning.Payload{}, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.TenantID == "" {
		return provisioning.Payload{}, fmt.Errorf("%s payload missing tenant_id: %w", t.Type(), asynq.SkipRetry)
	}
	return p, nil
}

// HandleStorage prepares the tenant's branding prefix in object storage.
func (w *Worker) HandleStorage(ctx context.Context, t *asynq.Task) error {
	p, err := decodePayload(t)
	if err != nil {
		return err
	}

	zapLog := zap.L().With(zap.String("tenant_id", p.TenantID), zap.String("task_type", t.Type()))

	if w.storage == nil {
		zapLog.Warn("object storage not configured, skipping storage provisioning")
		return nil
	}

	// Zero-byte marker object; MinIO has no real directories.
	marker := fmt.Sprintf("tenants/%s/.keep", p.TenantID)
	_, err = w.storage.PutObject(ctx, w.cfg.Minio.BucketName, marker, nil, 0, minio.PutObjectOptions{})
	if err != nil {
		zapLog.Error("failed to provision tenant storage", zap.Error(err))
		return err
	}

	zapLog.Info("tenant storage provisioned", zap.String("prefix", marker))
	return nil
}

// HandleDefaults finishes provisioning and flips the tenant to active.
func (w *Worker) HandleDefaults(ctx context.Context, t *asynq.Task) error {
	p, err := decodePayload(t)
	if err != nil {
		return err
	}

	zapLog := zap.L().With(zap.String("tenant_id", p.TenantID), zap.String("task_type", t.Type()))

	record, err := w.tenants.FindOne(ctx, &tenant.Tenant{ID: p.TenantID})
	if err != nil {
		zapLog.Error("failed to load tenant", zap.Error(err))
		return err
	}
	if record == nil {
		zapLog.Warn("tenant vanished before provisioning completed")
		return fmt.Errorf("tenant %s not found: %w", p.TenantID, asynq.SkipRetry)
	}

	if record.Status == tenant.Archived {
		zapLog.Warn("tenant archived before provisioning completed")
		return nil
	}

	if err := w.tenants.Update(ctx, record.ID, map[string]any{
		"status": tenant.Active,
	}); err != nil {
		zapLog.Error("failed to activate tenant", zap.Error(err))
		return err
	}

	zapLog.Info("tenant provisioning complete")
	return nil
}

var Module = fx.Module("provisioning.worker",
	fx.Provide(NewWorker),
	fx.Invoke(registerHandlers),
)
