package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/services/access"
	"tenantadmin-controlplane/services/plan"
	"tenantadmin-controlplane/services/tenant"
	"tenantadmin-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestReconciler(t *testing.T) (*Reconciler, *gorm.DB) {
	db := testutil.NewTestDB(t, &tenant.Tenant{})

	cfg := &config.Config{}
	cfg.Stripe.DefaultTier = plan.StarterKey

	accessSvc := access.NewService(access.ServiceParams{
		DB:       db,
		Resolver: access.NewResolver(plan.DefaultCatalog()),
		Cache:    access.NewResolutionCache(time.Minute),
	})

	r := NewReconciler(ReconcilerParams{
		DB:     db,
		Access: accessSvc,
		Config: cfg,
	})
	return r, db
}

func seedTenant(t *testing.T, db *gorm.DB, customerID string) {
	t.Helper()
	require.NoError(t, db.Create(&tenant.Tenant{
		ID:                 "t1",
		Code:               "T001",
		Name:               "Acme",
		Slug:               "acme",
		Status:             tenant.Active,
		SubscriptionStatus: tenant.SubscriptionTrialing,
		SubscriptionTier:   plan.StarterKey,
		StripeCustomerID:   customerID,
	}).Error)
}

func loadTenant(t *testing.T, db *gorm.DB) *tenant.Tenant {
	t.Helper()
	var out tenant.Tenant
	require.NoError(t, db.First(&out, "id = ?", "t1").Error)
	return &out
}

func TestApplySubscriptionUpdated(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	seats := 12

	err := r.Apply(context.Background(), Event{
		ID:             "evt_1",
		Kind:           KindSubscriptionUpdated,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         "active",
		Tier:           plan.GrowthKey,
		SeatLimit:      &seats,
		PeriodEnd:      &periodEnd,
	})
	require.NoError(t, err)

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionActive, got.SubscriptionStatus)
	require.Equal(t, plan.GrowthKey, got.SubscriptionTier)
	require.Equal(t, "sub_1", got.StripeSubscriptionID)
	require.NotNil(t, got.SeatLimit)
	require.Equal(t, 12, *got.SeatLimit)
	require.NotNil(t, got.CurrentPeriodEnd)
	require.WithinDuration(t, periodEnd, *got.CurrentPeriodEnd, time.Second)
	require.Nil(t, got.GracePeriodEndsAt)
}

func TestApplySubscriptionUpdatedKeepsSeatOverride(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	override := 7
	require.NoError(t, db.Model(&tenant.Tenant{}).Where("id = ?", "t1").
		Update("seat_limit", &override).Error)

	// Routine subscription event with no seat_limit metadata.
	err := r.Apply(context.Background(), Event{
		ID:             "evt_1",
		Kind:           KindSubscriptionUpdated,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         "active",
		Tier:           plan.GrowthKey,
	})
	require.NoError(t, err)

	got := loadTenant(t, db)
	require.NotNil(t, got.SeatLimit)
	require.Equal(t, 7, *got.SeatLimit)

	// Metadata that does carry a seat limit still lands.
	seats := 20
	require.NoError(t, r.Apply(context.Background(), Event{
		ID:         "evt_2",
		Kind:       KindSubscriptionUpdated,
		CustomerID: "cus_1",
		Status:     "active",
		Tier:       plan.GrowthKey,
		SeatLimit:  &seats,
	}))
	got = loadTenant(t, db)
	require.NotNil(t, got.SeatLimit)
	require.Equal(t, 20, *got.SeatLimit)
}

func TestApplyIsIdempotentOnReplay(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	ev := Event{
		ID:             "evt_1",
		Kind:           KindSubscriptionUpdated,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         "active",
		Tier:           plan.GrowthKey,
	}

	require.NoError(t, r.Apply(context.Background(), ev))
	first := loadTenant(t, db)

	// Stripe redelivers; the full-state overwrite makes the replay a no-op.
	require.NoError(t, r.Apply(context.Background(), ev))
	second := loadTenant(t, db)

	require.Equal(t, first.SubscriptionStatus, second.SubscriptionStatus)
	require.Equal(t, first.SubscriptionTier, second.SubscriptionTier)
	require.Equal(t, first.StripeSubscriptionID, second.StripeSubscriptionID)
	require.Equal(t, first.SeatLimit, second.SeatLimit)
}

func TestApplyPaymentFailedSetsGracePeriod(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	err := r.Apply(context.Background(), Event{
		ID:         "evt_1",
		Kind:       KindPaymentFailed,
		CustomerID: "cus_1",
	})
	require.NoError(t, err)

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionPastDue, got.SubscriptionStatus)
	require.NotNil(t, got.GracePeriodEndsAt)
	require.WithinDuration(t, time.Now().UTC().Add(GracePeriod), *got.GracePeriodEndsAt, 5*time.Second)
}

func TestApplyPaymentSucceededClearsGrace(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	require.NoError(t, r.Apply(context.Background(), Event{
		ID:         "evt_1",
		Kind:       KindPaymentFailed,
		CustomerID: "cus_1",
	}))

	require.NoError(t, r.Apply(context.Background(), Event{
		ID:         "evt_2",
		Kind:       KindPaymentSucceeded,
		CustomerID: "cus_1",
	}))

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionActive, got.SubscriptionStatus)
	require.Nil(t, got.GracePeriodEndsAt)
	require.NotNil(t, got.LastPaymentAt)
	require.WithinDuration(t, time.Now().UTC(), *got.LastPaymentAt, 5*time.Second)
}

func TestApplyOutOfOrderConvergesOnLastApplied(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	updated := Event{
		ID:             "evt_new",
		Kind:           KindSubscriptionUpdated,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         "active",
		Tier:           plan.GrowthKey,
	}
	failed := Event{
		ID:         "evt_old",
		Kind:       KindPaymentFailed,
		CustomerID: "cus_1",
	}

	// Failure delivered late, after the subscription recovered: the later
	// webhook always wins because every event overwrites the projection.
	require.NoError(t, r.Apply(context.Background(), failed))
	require.NoError(t, r.Apply(context.Background(), updated))

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionActive, got.SubscriptionStatus)
	require.Nil(t, got.GracePeriodEndsAt)
}

func TestApplyCheckoutCompleted(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	err := r.Apply(context.Background(), Event{
		ID:             "evt_1",
		Kind:           KindCheckoutCompleted,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Tier:           plan.GrowthKey,
	})
	require.NoError(t, err)

	got := loadTenant(t, db)
	require.Equal(t, tenant.Active, got.Status)
	require.Equal(t, tenant.SubscriptionActive, got.SubscriptionStatus)
	require.Equal(t, plan.GrowthKey, got.SubscriptionTier)
	require.Equal(t, "sub_1", got.StripeSubscriptionID)
}

func TestApplyCheckoutWithoutTierUsesDefault(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	require.NoError(t, r.Apply(context.Background(), Event{
		ID:             "evt_1",
		Kind:           KindCheckoutCompleted,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	}))

	got := loadTenant(t, db)
	require.Equal(t, plan.StarterKey, got.SubscriptionTier)
}

func TestApplySubscriptionDeleted(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	require.NoError(t, db.Model(&tenant.Tenant{}).Where("id = ?", "t1").
		Update("stripe_subscription_id", "sub_1").Error)

	err := r.Apply(context.Background(), Event{
		ID:         "evt_1",
		Kind:       KindSubscriptionDeleted,
		CustomerID: "cus_1",
	})
	require.NoError(t, err)

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionCanceled, got.SubscriptionStatus)
	require.Empty(t, got.StripeSubscriptionID)
	require.Equal(t, plan.DemoKey, got.SubscriptionTier)
}

func TestApplySubscriptionPausedAndResumed(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	require.NoError(t, r.Apply(context.Background(), Event{
		ID:         "evt_1",
		Kind:       KindSubscriptionPaused,
		CustomerID: "cus_1",
	}))
	require.Equal(t, tenant.SubscriptionPastDue, loadTenant(t, db).SubscriptionStatus)

	require.NoError(t, r.Apply(context.Background(), Event{
		ID:         "evt_2",
		Kind:       KindSubscriptionResumed,
		CustomerID: "cus_1",
	}))

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionActive, got.SubscriptionStatus)
	require.Nil(t, got.GracePeriodEndsAt)
}

func TestApplyCustomerDeletedClearsPaymentIdentifiers(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	require.NoError(t, db.Model(&tenant.Tenant{}).Where("id = ?", "t1").
		Update("stripe_subscription_id", "sub_1").Error)

	require.NoError(t, r.Apply(context.Background(), Event{
		ID:         "evt_1",
		Kind:       KindCustomerDeleted,
		CustomerID: "cus_1",
	}))

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionCanceled, got.SubscriptionStatus)
	require.Empty(t, got.StripeCustomerID)
	require.Empty(t, got.StripeSubscriptionID)
}

func TestApplyUnknownCustomerFails(t *testing.T) {
	r, _ := newTestReconciler(t)

	err := r.Apply(context.Background(), Event{
		ID:         "evt_1",
		Kind:       KindSubscriptionUpdated,
		CustomerID: "cus_missing",
		Status:     "active",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))
}

func TestApplyUnknownKindIsNoOp(t *testing.T) {
	r, db := newTestReconciler(t)
	seedTenant(t, db, "cus_1")

	require.NoError(t, r.Apply(context.Background(), Event{
		ID:   "evt_1",
		Kind: KindUnknown,
	}))

	got := loadTenant(t, db)
	require.Equal(t, tenant.SubscriptionTrialing, got.SubscriptionStatus)
}
