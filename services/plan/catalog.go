package plan

import (
	"fmt"

	"tenantadmin-controlplane/pkg/config"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DemoKey       = "demo"
	StarterKey    = "starter"
	GrowthKey     = "growth"
	EnterpriseKey = "enterprise"
)

// Plan is a static catalog entry. Plans are configuration, never persisted
// per tenant.
type Plan struct {
	Key          string
	SeatLimit    int
	Modules      ModuleSet
	Capabilities CapabilitySet
}

// Catalog maps plan keys to plans. Immutable after construction; resolution
// of an unknown key degrades to the demo plan rather than failing.
type Catalog struct {
	plans map[string]Plan
}

func NewCatalog(plans ...Plan) *Catalog {
	m := make(map[string]Plan, len(plans))
	for _, p := range plans {
		m[p.Key] = p
	}
	return &Catalog{plans: m}
}

// Lookup returns the plan for key and whether it exists.
func (c *Catalog) Lookup(key string) (Plan, bool) {
	p, ok := c.plans[key]
	return p, ok
}

// Resolve returns the plan for key, degrading to demo when key is unknown
// or empty. Resolution never fails.
func (c *Catalog) Resolve(key string) Plan {
	if p, ok := c.plans[key]; ok {
		return p
	}
	return c.plans[DemoKey]
}

// Demo returns the lowest tier.
func (c *Catalog) Demo() Plan {
	return c.plans[DemoKey]
}

func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.plans))
	for k := range c.plans {
		keys = append(keys, k)
	}
	return keys
}

// DefaultCatalog is the built-in plan table.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Plan{
			Key:       DemoKey,
			SeatLimit: 3,
			Modules:   ExplicitModules(ModuleDashboard, ModuleProducts, ModuleTeam),
			Capabilities: ExplicitCapabilities(
				ViewCosts, ViewProducts, ViewRawMaterials, ViewTeam,
			),
		},
		Plan{
			Key:       StarterKey,
			SeatLimit: 5,
			Modules: ExplicitModules(
				ModuleDashboard, ModuleProducts, ModuleRawMaterials, ModuleTeam, ModuleSettings,
			),
			Capabilities: ExplicitCapabilities(
				ViewCosts, ViewProducts, EditProducts,
				ViewRawMaterials, EditRawMaterials,
				ViewTeam, ManageTeam,
			),
		},
		Plan{
			Key:       GrowthKey,
			SeatLimit: 10,
			Modules: ExplicitModules(
				ModuleDashboard, ModuleProducts, ModuleRawMaterials, ModuleCosts, ModuleTeam, ModuleSettings,
			),
			Capabilities: ExplicitCapabilities(
				ViewCosts, EditCosts,
				ViewProducts, EditProducts, DeleteProducts,
				ViewRawMaterials, EditRawMaterials,
				ViewTeam, ManageTeam, ConfigureSystem,
			),
		},
		Plan{
			Key:          EnterpriseKey,
			SeatLimit:    100,
			Modules:      AllModuleSet(),
			Capabilities: AllCapabilitySet(),
		},
	)
}

// FxModule wires the catalog provider. Named FxModule because Module is the
// feature-module type in this package.
var FxModule = fx.Module("plan.catalog",
	fx.Provide(ProvideCatalog),
)

type catalogFileEntry struct {
	Key          string   `mapstructure:"key"`
	SeatLimit    int      `mapstructure:"seat_limit"`
	Modules      []string `mapstructure:"modules"`
	Capabilities []string `mapstructure:"capabilities"`
}

// ProvideCatalog returns the built-in catalog, overlaid with entries from
// PLANS.CATALOG_PATH when configured.
func ProvideCatalog(cfg *config.Config) (*Catalog, error) {
	catalog := DefaultCatalog()

	if cfg.Plans.CatalogPath == "" {
		return catalog, nil
	}

	v := viper.New()
	v.SetConfigFile(cfg.Plans.CatalogPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}

	var entries []catalogFileEntry
	if err := v.UnmarshalKey("plans", &entries); err != nil {
		return nil, fmt.Errorf("failed to decode plan catalog: %w", err)
	}

	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		catalog.plans[e.Key] = Plan{
			Key:          e.Key,
			SeatLimit:    e.SeatLimit,
			Modules:      ModuleSetFromStrings(e.Modules),
			Capabilities: CapabilitySetFromStrings(e.Capabilities),
		}
	}

	if _, ok := catalog.plans[DemoKey]; !ok {
		return nil, fmt.Errorf("plan catalog must define the %q plan", DemoKey)
	}

	zap.L().Info("plan catalog loaded", zap.Strings("plans", catalog.Keys()))

	return catalog, nil
}
