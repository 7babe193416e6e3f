package pouch

import "flecsd/internal/manifest"

// Providers is the pouch mapping each feature to the instance designated,
// by default, to satisfy it, plus a small set of named "core" provider
// slots (e.g. core auth) resolved outside the regular feature namespace.
type Providers struct {
	DefaultProviders map[manifest.FeatureKey]InstanceId `json:"defaultProviders"`
	CoreProviders    map[string]InstanceId              `json:"coreProviders"`
}

// NewProviders returns an empty Providers pouch.
func NewProviders() *Providers {
	return &Providers{
		DefaultProviders: make(map[manifest.FeatureKey]InstanceId),
		CoreProviders:    make(map[string]InstanceId),
	}
}

// DefaultProvider returns the instance registered as the default provider
// for feature, and whether one is registered.
func (p *Providers) DefaultProvider(feature manifest.FeatureKey) (InstanceId, bool) {
	id, ok := p.DefaultProviders[feature]
	return id, ok
}

// SetDefaultProvider replaces the default provider for feature, returning
// the previous one if any.
func (p *Providers) SetDefaultProvider(feature manifest.FeatureKey, id InstanceId) (prev InstanceId, had bool) {
	if p.DefaultProviders == nil {
		p.DefaultProviders = make(map[manifest.FeatureKey]InstanceId)
	}
	prev, had = p.DefaultProviders[feature]
	p.DefaultProviders[feature] = id
	return prev, had
}

// DeleteDefaultProvider removes the default provider mapping for feature.
func (p *Providers) DeleteDefaultProvider(feature manifest.FeatureKey) {
	delete(p.DefaultProviders, feature)
}

const coreAuthSlot = "auth"

// CoreAuthProvider returns the instance registered for the core auth slot.
func (p *Providers) CoreAuthProvider() (InstanceId, bool) {
	id, ok := p.CoreProviders[coreAuthSlot]
	return id, ok
}

// SetCoreAuthProvider registers id as the core auth provider.
func (p *Providers) SetCoreAuthProvider(id InstanceId) {
	if p.CoreProviders == nil {
		p.CoreProviders = make(map[string]InstanceId)
	}
	p.CoreProviders[coreAuthSlot] = id
}
