package plan

// Capability is an atomic permission token. Membership in a resolved set is
// binary; capabilities are never parameterized or combined.
type Capability string

const (
	ViewCosts        Capability = "view_costs"
	EditCosts        Capability = "edit_costs"
	ViewProducts     Capability = "view_products"
	EditProducts     Capability = "edit_products"
	DeleteProducts   Capability = "delete_products"
	ViewRawMaterials Capability = "view_raw_materials"
	EditRawMaterials Capability = "edit_raw_materials"
	ViewTeam         Capability = "view_team"
	ManageTeam       Capability = "manage_team"
	ConfigureSystem  Capability = "configure_system"
	ManageTenants    Capability = "manage_tenants"
)

// capabilities is the closed enumeration. Adding a capability means adding it
// here and granting it in every plan that should carry it.
var capabilities = []Capability{
	ViewCosts,
	EditCosts,
	ViewProducts,
	EditProducts,
	DeleteProducts,
	ViewRawMaterials,
	EditRawMaterials,
	ViewTeam,
	ManageTeam,
	ConfigureSystem,
	ManageTenants,
}

// readOnlyCapabilities is the safe subset granted when no tenant is bound.
var readOnlyCapabilities = []Capability{
	ViewCosts,
	ViewProducts,
	ViewRawMaterials,
	ViewTeam,
}

func (c Capability) IsValid() bool {
	for _, known := range capabilities {
		if c == known {
			return true
		}
	}
	return false
}

func (c Capability) String() string { return string(c) }

// AllCapabilities returns a copy of the full capability universe.
func AllCapabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

// ReadOnlyCapabilities returns a copy of the view-only subset.
func ReadOnlyCapabilities() []Capability {
	out := make([]Capability, len(readOnlyCapabilities))
	copy(out, readOnlyCapabilities)
	return out
}
