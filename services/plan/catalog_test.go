package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasAllTiers(t *testing.T) {
	catalog := DefaultCatalog()

	for _, key := range []string{DemoKey, StarterKey, GrowthKey, EnterpriseKey} {
		_, ok := catalog.Lookup(key)
		require.True(t, ok, "missing plan %s", key)
	}
}

func TestResolveUnknownKeyFallsBackToDemo(t *testing.T) {
	catalog := DefaultCatalog()

	for _, key := range []string{"", "gold", "ENTERPRISE", "deleted-tier"} {
		p := catalog.Resolve(key)
		require.Equal(t, DemoKey, p.Key, "key %q should degrade to demo", key)
	}
}

func TestResolveKnownKey(t *testing.T) {
	catalog := DefaultCatalog()

	p := catalog.Resolve(GrowthKey)
	require.Equal(t, GrowthKey, p.Key)
	require.Equal(t, 10, p.SeatLimit)
	require.True(t, p.Capabilities.Contains(ConfigureSystem))
	require.False(t, p.Capabilities.Contains(ManageTenants))
}

func TestDemoPlanIsReadMostly(t *testing.T) {
	demo := DefaultCatalog().Demo()

	require.Equal(t, 3, demo.SeatLimit)
	require.True(t, demo.Capabilities.Contains(ViewProducts))
	require.False(t, demo.Capabilities.Contains(EditProducts))
	require.False(t, demo.Capabilities.Contains(DeleteProducts))
	require.False(t, demo.Modules.Contains(ModuleCosts))
}

func TestWildcardCapabilitySet(t *testing.T) {
	set := CapabilitySetFromStrings([]string{Wildcard})
	require.True(t, set.IsAll())

	// Wildcard expands against the current enumeration, not a snapshot.
	require.ElementsMatch(t, AllCapabilities(), set.Expand())

	for _, c := range AllCapabilities() {
		require.True(t, set.Contains(c))
	}
}

func TestCapabilitySetDropsUnknownTokens(t *testing.T) {
	set := CapabilitySetFromStrings([]string{"view_costs", "fly_to_moon", "edit_products"})

	require.False(t, set.IsAll())
	require.ElementsMatch(t, []Capability{ViewCosts, EditProducts}, set.Expand())
	require.False(t, set.Contains(Capability("fly_to_moon")))
}

func TestModuleSetWildcard(t *testing.T) {
	set := ModuleSetFromStrings([]string{Wildcard})
	require.True(t, set.IsAll())
	require.ElementsMatch(t, AllModules(), set.Expand())
}

func TestEnterpriseCoversEveryCapability(t *testing.T) {
	enterprise, ok := DefaultCatalog().Lookup(EnterpriseKey)
	require.True(t, ok)

	for _, c := range AllCapabilities() {
		require.True(t, enterprise.Capabilities.Contains(c), "enterprise missing %s", c)
	}
	for _, m := range AllModules() {
		require.True(t, enterprise.Modules.Contains(m), "enterprise missing %s", m)
	}
}
