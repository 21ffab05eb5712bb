package plan

// Wildcard is the catalog-file token granting the full universe. It only
// exists at the decode boundary; resolved sets carry an explicit all flag.
const Wildcard = "*"

// CapabilitySet is either the full capability universe or an explicit set.
type CapabilitySet struct {
	all   bool
	items map[Capability]struct{}
}

func AllCapabilitySet() CapabilitySet {
	return CapabilitySet{all: true}
}

func ExplicitCapabilities(caps ...Capability) CapabilitySet {
	items := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		items[c] = struct{}{}
	}
	return CapabilitySet{items: items}
}

// CapabilitySetFromStrings decodes a catalog entry. A single wildcard token
// yields the full universe; unknown tokens are dropped.
func CapabilitySetFromStrings(tokens []string) CapabilitySet {
	for _, t := range tokens {
		if t == Wildcard {
			return AllCapabilitySet()
		}
	}

	caps := make([]Capability, 0, len(tokens))
	for _, t := range tokens {
		if c := Capability(t); c.IsValid() {
			caps = append(caps, c)
		}
	}
	return ExplicitCapabilities(caps...)
}

func (s CapabilitySet) IsAll() bool { return s.all }

func (s CapabilitySet) Contains(c Capability) bool {
	if s.all {
		return c.IsValid()
	}
	_, ok := s.items[c]
	return ok
}

// Expand materializes the set against the current enumeration.
func (s CapabilitySet) Expand() []Capability {
	if s.all {
		return AllCapabilities()
	}

	out := make([]Capability, 0, len(s.items))
	for _, c := range AllCapabilities() {
		if _, ok := s.items[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ModuleSet is either the full module universe or an explicit set.
type ModuleSet struct {
	all   bool
	items map[Module]struct{}
}

func AllModuleSet() ModuleSet {
	return ModuleSet{all: true}
}

func ExplicitModules(mods ...Module) ModuleSet {
	items := make(map[Module]struct{}, len(mods))
	for _, m := range mods {
		items[m] = struct{}{}
	}
	return ModuleSet{items: items}
}

func ModuleSetFromStrings(tokens []string) ModuleSet {
	for _, t := range tokens {
		if t == Wildcard {
			return AllModuleSet()
		}
	}

	mods := make([]Module, 0, len(tokens))
	for _, t := range tokens {
		if m := Module(t); m.IsValid() {
			mods = append(mods, m)
		}
	}
	return ExplicitModules(mods...)
}

func (s ModuleSet) IsAll() bool { return s.all }

func (s ModuleSet) Contains(m Module) bool {
	if s.all {
		return m.IsValid()
	}
	_, ok := s.items[m]
	return ok
}

func (s ModuleSet) Expand() []Module {
	if s.all {
		return AllModules()
	}

	out := make([]Module, 0, len(s.items))
	for _, m := range AllModules() {
		if _, ok := s.items[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
