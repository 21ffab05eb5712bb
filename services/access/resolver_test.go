package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tenantadmin-controlplane/services/plan"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newResolver() *Resolver {
	return NewResolver(plan.DefaultCatalog())
}

func TestResolveSuperAdminPlatformGetsFullUniverse(t *testing.T) {
	r := newResolver()

	resolved := r.Resolve(
		ExecutionContext{IsSuperAdmin: true, Mode: ModePlatform},
		SubscriptionState{},
	)

	require.Equal(t, plan.EnterpriseKey, resolved.PlanKey)
	for _, c := range plan.AllCapabilities() {
		require.True(t, resolved.Can(c), "super admin missing %s", c)
	}
	for _, m := range plan.AllModules() {
		require.True(t, resolved.ModuleEnabled(m), "super admin missing %s", m)
	}
}

func TestResolveSuperAdminInCompanyModeIsPlanBound(t *testing.T) {
	r := newResolver()

	resolved := r.Resolve(
		ExecutionContext{IsSuperAdmin: true, Mode: ModeCompany, TenantID: "t1"},
		SubscriptionState{Status: "active", Tier: plan.StarterKey},
	)

	require.Equal(t, plan.StarterKey, resolved.PlanKey)
	require.False(t, resolved.Can(plan.ManageTenants))
}

func TestResolveNoTenantIsReadOnly(t *testing.T) {
	r := newResolver()

	resolved := r.Resolve(ExecutionContext{}, SubscriptionState{})

	require.Equal(t, plan.DemoKey, resolved.PlanKey)
	require.True(t, resolved.Can(plan.ViewCosts))
	require.True(t, resolved.Can(plan.ViewProducts))
	require.False(t, resolved.Can(plan.EditProducts))
	require.False(t, resolved.Can(plan.ManageTeam))
	require.False(t, resolved.Can(plan.ConfigureSystem))
}

func TestResolveModeNoneWithTenantIsReadOnly(t *testing.T) {
	r := newResolver()

	resolved := r.Resolve(
		ExecutionContext{TenantID: "t1", Mode: ModeNone},
		SubscriptionState{Status: "active", Tier: plan.GrowthKey},
	)

	require.Equal(t, plan.DemoKey, resolved.PlanKey)
	require.False(t, resolved.Can(plan.EditCosts))
}

func TestResolveUnknownTierDegradesToDemo(t *testing.T) {
	r := newResolver()

	resolved := r.Resolve(
		ExecutionContext{Mode: ModeCompany, TenantID: "t1"},
		SubscriptionState{Status: "active", Tier: "platinum"},
	)

	require.Equal(t, plan.DemoKey, resolved.PlanKey)
	require.Equal(t, "platinum", resolved.StoredTier)
}

func TestResolveInactiveStatusDegradesToDemo(t *testing.T) {
	r := newResolver()

	for _, status := range []string{"past_due", "canceled", "unpaid", "incomplete", "", "garbage"} {
		resolved := r.Resolve(
			ExecutionContext{Mode: ModeCompany, TenantID: "t1"},
			SubscriptionState{Status: status, Tier: plan.GrowthKey},
		)

		require.Equal(t, plan.DemoKey, resolved.PlanKey, "status %q should degrade", status)
		require.Equal(t, plan.GrowthKey, resolved.StoredTier, "stored tier is kept for display")
		require.False(t, resolved.Can(plan.EditCosts))
	}
}

func TestResolveActiveStatuses(t *testing.T) {
	r := newResolver()

	for _, status := range []string{"active", "trialing"} {
		resolved := r.Resolve(
			ExecutionContext{Mode: ModeCompany, TenantID: "t1"},
			SubscriptionState{Status: status, Tier: plan.GrowthKey},
		)

		require.Equal(t, plan.GrowthKey, resolved.PlanKey, "status %q should keep the tier", status)
		require.True(t, resolved.Can(plan.EditCosts))
		require.Equal(t, 10, resolved.SeatLimit)
	}
}

func TestResolveSeatLimitOverride(t *testing.T) {
	r := newResolver()
	override := 25

	resolved := r.Resolve(
		ExecutionContext{Mode: ModeCompany, TenantID: "t1"},
		SubscriptionState{Status: "active", Tier: plan.StarterKey, SeatLimitOverride: &override},
	)
	require.Equal(t, 25, resolved.SeatLimit)

	// Override also applies on the degraded plan.
	degraded := r.Resolve(
		ExecutionContext{Mode: ModeCompany, TenantID: "t1"},
		SubscriptionState{Status: "canceled", Tier: plan.StarterKey, SeatLimitOverride: &override},
	)
	require.Equal(t, plan.DemoKey, degraded.PlanKey)
	require.Equal(t, 25, degraded.SeatLimit)
}

func TestResolutionCache(t *testing.T) {
	cache := NewResolutionCache(time.Minute)
	r := newResolver()

	ec := ExecutionContext{Mode: ModeCompany, TenantID: "t1"}
	sub := SubscriptionState{Status: "active", Tier: plan.StarterKey}
	key := keyFor(ec)

	_, ok := cache.Get(key)
	require.False(t, ok)

	resolved := r.Resolve(ec, sub)
	cache.Set(key, resolved)

	cached, ok := cache.Get(key)
	require.True(t, ok)
	require.Equal(t, resolved.PlanKey, cached.PlanKey)

	cache.InvalidateTenant("t1")
	_, ok = cache.Get(key)
	require.False(t, ok)
}

func TestResolutionCacheExpiry(t *testing.T) {
	cache := NewResolutionCache(time.Nanosecond)
	r := newResolver()

	ec := ExecutionContext{Mode: ModeCompany, TenantID: "t1"}
	sub := SubscriptionState{Status: "active", Tier: plan.StarterKey}
	key := keyFor(ec)

	cache.Set(key, r.Resolve(ec, sub))
	time.Sleep(time.Millisecond)

	_, ok := cache.Get(key)
	require.False(t, ok)
}
