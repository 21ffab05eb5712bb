package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/db/pagination"
	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/services/apikey"
	"tenantadmin-controlplane/services/domain"
	"tenantadmin-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockEnqueuer struct {
	tasks     []*asynq.Task
	err       error
	onEnqueue func(*asynq.Task)
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.onEnqueue != nil {
		m.onEnqueue(task)
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{ID: task.Type()}, nil
}

type mockSequence struct {
	tenantCodes int
}

func (m *mockSequence) NextTenantCode(ctx context.Context) (string, error) {
	m.tenantCodes++
	return fmt.Sprintf("T%03d", m.tenantCodes), nil
}

func newTestService(t *testing.T) (*Service, *mockEnqueuer, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Tenant{}, &domain.Domain{}, &apikey.APIKey{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.RootDomain = "tenantadmin.app"
	cfg.Stripe.DefaultTier = "starter"

	enqueuer := &mockEnqueuer{}

	svc := NewService(ServiceParams{
		DB:      db,
		Asynq:   enqueuer,
		Node:    node,
		Seq:     &mockSequence{},
		Config:  cfg,
		Domains: domain.NewService(domain.ServiceParams{DB: db, Node: node}),
		Keys:    apikey.NewService(apikey.ServiceParams{DB: db, Node: node}),
	})

	return svc, enqueuer, db
}

func TestCreateTenant(t *testing.T) {
	svc, enqueuer, db := newTestService(t)

	view, err := svc.Create(context.Background(), CreateInput{Name: "Acme Foods"})
	require.NoError(t, err)

	require.Equal(t, "Acme Foods", view.Name)
	require.Equal(t, "acme-foods", view.Slug)
	require.Equal(t, "T001", view.Code)
	require.Equal(t, Provisioning.String(), view.Status)
	require.Equal(t, SubscriptionTrialing.String(), view.SubscriptionStatus)
	require.Equal(t, "starter", view.SubscriptionTier)

	var d domain.Domain
	require.NoError(t, db.First(&d, "tenant_id = ?", view.ID).Error)
	require.Equal(t, "acme-foods.tenantadmin.app", d.Hostname)
	require.True(t, d.Verified)
	require.True(t, d.IsPrimary)

	var key apikey.APIKey
	require.NoError(t, db.First(&key, "tenant_id = ?", view.ID).Error)
	require.Equal(t, apikey.APIKeyTypeServer, key.KeyType)
	require.Contains(t, key.KeyID, "tak_live_")
	require.NotEmpty(t, key.SecretHash)

	require.Len(t, enqueuer.tasks, 2)
}

func TestCreateTenantEnqueuesAfterCommit(t *testing.T) {
	svc, enqueuer, db := newTestService(t)

	// Workers load the tenant by id, so the row must already be committed
	// when the task hits the queue.
	enqueuer.onEnqueue = func(task *asynq.Task) {
		var payload struct {
			TenantID string `json:"tenant_id"`
		}
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))

		var count int64
		require.NoError(t, db.Model(&Tenant{}).Where("id = ?", payload.TenantID).Count(&count).Error)
		require.Equal(t, int64(1), count)
	}

	_, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.NoError(t, err)
	require.Len(t, enqueuer.tasks, 2)
}

func TestCreateTenantDuplicateSlug(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Different", Slug: "acme"})
	require.Error(t, err)
	require.Equal(t, errutil.StatusConflict, errutil.StatusOf(err))
}

func TestCreateTenantRequiresRootDomain(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.config.RootDomain = ""

	_, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.Error(t, err)
	require.Equal(t, errutil.StatusInternal, errutil.StatusOf(err))
}

func TestGetTenantNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestListTenants(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{Name: "Beta"})
	require.NoError(t, err)

	views, err := svc.List(context.Background(), pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Tenant codes are sequential and unique.
	require.NotEqual(t, views[0].Code, views[1].Code)
}

func TestUpdateTenantSeatOverride(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.NoError(t, err)

	seats := 42
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{SeatLimit: &seats})
	require.NoError(t, err)
	require.NotNil(t, updated.SeatLimit)
	require.Equal(t, 42, *updated.SeatLimit)

	negative := -1
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{SeatLimit: &negative})
	require.Error(t, err)
	require.Equal(t, errutil.StatusValidationFailed, errutil.StatusOf(err))
}

func TestArchiveTenant(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), created.ID))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, Archived.String(), got.Status)

	// Archive is idempotent.
	require.NoError(t, svc.Archive(context.Background(), created.ID))
}
