package access

import (
	"tenantadmin-controlplane/services/plan"
)

// Mode is the console operating mode carried on the execution context.
type Mode string

const (
	ModePlatform Mode = "platform"
	ModeCompany  Mode = "company"
	ModeNone     Mode = ""
)

// ExecutionContext is the per-request caller identity. Derived from trusted
// edge headers, never persisted.
type ExecutionContext struct {
	IsSuperAdmin bool
	Mode         Mode
	TenantID     string
}

// SubscriptionState is the slice of the tenant record the resolver consumes.
type SubscriptionState struct {
	Status            string
	Tier              string
	SeatLimitOverride *int
}

// Access is the resolved permission surface for one execution context. The
// only checks other code performs are Can and ModuleEnabled; nothing outside
// this package re-derives permissions from roles or tiers.
type Access struct {
	PlanKey    string
	StoredTier string
	SeatLimit  int

	capabilities plan.CapabilitySet
	modules      plan.ModuleSet
}

func (a Access) Can(c plan.Capability) bool {
	return a.capabilities.Contains(c)
}

func (a Access) ModuleEnabled(m plan.Module) bool {
	return a.modules.Contains(m)
}

// Capabilities materializes the resolved capability set against the current
// enumeration.
func (a Access) Capabilities() []plan.Capability {
	return a.capabilities.Expand()
}

func (a Access) Modules() []plan.Module {
	return a.modules.Expand()
}

// Resolver computes access from an execution context and subscription state.
// Resolution is a total pure function: every input, including garbage tiers
// and statuses, lands on a defined fallback. It must never be the reason a
// request fails.
type Resolver struct {
	catalog *plan.Catalog
}

func NewResolver(catalog *plan.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// isActiveStatus reports whether a subscription status entitles the tenant
// to its stored tier.
func isActiveStatus(status string) bool {
	return status == "active" || status == "trialing"
}

// Resolve maps (execution context, subscription state) to the effective
// permission surface.
func (r *Resolver) Resolve(ec ExecutionContext, sub SubscriptionState) Access {
	// Platform operators are not bound by any tenant's plan.
	if ec.IsSuperAdmin && ec.Mode == ModePlatform {
		return Access{
			PlanKey:      plan.EnterpriseKey,
			StoredTier:   sub.Tier,
			SeatLimit:    r.catalog.Resolve(plan.EnterpriseKey).SeatLimit,
			capabilities: plan.AllCapabilitySet(),
			modules:      plan.AllModuleSet(),
		}
	}

	// No tenant bound: read-only surface, never write capabilities.
	if ec.TenantID == "" || ec.Mode == ModeNone {
		demo := r.catalog.Demo()
		return Access{
			PlanKey:      demo.Key,
			StoredTier:   sub.Tier,
			SeatLimit:    demo.SeatLimit,
			capabilities: plan.ExplicitCapabilities(plan.ReadOnlyCapabilities()...),
			modules:      demo.Modules,
		}
	}

	resolved := r.catalog.Resolve(sub.Tier)

	// A lapsed subscription degrades to demo while the stored tier is kept
	// for display and audit.
	effective := resolved
	if !isActiveStatus(sub.Status) {
		effective = r.catalog.Demo()
	}

	seatLimit := effective.SeatLimit
	if sub.SeatLimitOverride != nil {
		seatLimit = *sub.SeatLimitOverride
	}

	return Access{
		PlanKey:      effective.Key,
		StoredTier:   sub.Tier,
		SeatLimit:    seatLimit,
		capabilities: effective.Capabilities,
		modules:      effective.Modules,
	}
}
