package plan

// Module identifies a feature module surfaced in the console navigation.
type Module string

const (
	ModuleDashboard    Module = "dashboard"
	ModuleProducts     Module = "products"
	ModuleRawMaterials Module = "raw_materials"
	ModuleCosts        Module = "costs"
	ModuleTeam         Module = "team"
	ModuleSettings     Module = "settings"
	ModuleTenants      Module = "tenants"
)

var modules = []Module{
	ModuleDashboard,
	ModuleProducts,
	ModuleRawMaterials,
	ModuleCosts,
	ModuleTeam,
	ModuleSettings,
	ModuleTenants,
}

func (m Module) IsValid() bool {
	for _, known := range modules {
		if m == known {
			return true
		}
	}
	return false
}

func (m Module) String() string { return string(m) }

// AllModules returns a copy of the full module universe.
func AllModules() []Module {
	out := make([]Module, len(modules))
	copy(out, modules)
	return out
}
