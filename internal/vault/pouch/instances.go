package pouch

import "flecsd/internal/manifest"

// DesiredState is the instance's target lifecycle state, distinct from the
// deployment's observed runtime Status (internal/deployment).
type DesiredState string

const (
	DesiredNotCreated    DesiredState = "NotCreated"
	DesiredRequested     DesiredState = "Requested"
	DesiredResourcesReady DesiredState = "ResourcesReady"
	DesiredStopped       DesiredState = "Stopped"
	DesiredRunning       DesiredState = "Running"
	DesiredOrphaned      DesiredState = "Orphaned"
	DesiredUnknown       DesiredState = "Unknown"
)

// USBDeviceConfig records the current host passthrough binding for one
// manifest-declared USB device requirement. Distinct from the manifest's
// declared device requirement: a physical device can move to a different
// bus/port between runs, and this is where the current binding lives.
type USBDeviceConfig struct {
	Port   string `json:"port"`
	Bus    string `json:"bus"`
	Device string `json:"device"`
}

// ProviderReference names who satisfies a dependency: either the feature's
// registered default provider, or one specific instance.
type ProviderReference struct {
	Default  bool       `json:"default"`
	Provider InstanceId `json:"provider,omitempty"`
}

// StoredProviderReference is what an instance records once a dependency has
// been bound to a concrete provider.
type StoredProviderReference struct {
	ProviderReference ProviderReference    `json:"providerReference"`
	ProvidedFeature   manifest.FeatureKey  `json:"providedFeature"`
}

// InstanceConfig is the instance-local resource layout, distinct from the
// manifest it was constructed from.
type InstanceConfig struct {
	Env                 []manifest.EnvVar        `json:"env,omitempty"`
	Ports                []manifest.PortMapping   `json:"ports,omitempty"`
	VolumeMounts         map[VolumeId]string       `json:"volumeMounts,omitempty"`
	USBDevices           []USBDeviceConfig         `json:"usbDevices,omitempty"`
	Networks             map[NetworkId]IPAddr      `json:"networks,omitempty"`
	// DefaultNetworkID is the network connected at instance creation (the
	// deployment's DefaultNetwork() at the time), used to resolve the
	// editor reverse-proxy target address without guessing among several
	// connected networks.
	DefaultNetworkID     NetworkId                 `json:"defaultNetworkId,omitempty"`
	EditorPortRemaps     map[string]int            `json:"editorPortRemaps,omitempty"`
	EditorPathPrefixes   map[string]string         `json:"editorPathPrefixes,omitempty"`
}

// Instance is one realisation of a manifest: one container, for the Docker
// deployment.
type Instance struct {
	ID           InstanceId                                      `json:"id"`
	Name         string                                          `json:"name"`
	Hostname     string                                          `json:"hostname"`
	ManifestKey  manifest.AppKey                                 `json:"manifestKey"`
	DeploymentID DeploymentId                                    `json:"deploymentId"`
	Config       InstanceConfig                                  `json:"config"`
	Desired      DesiredState                                    `json:"desired"`
	Dependencies map[manifest.DependencyKey]StoredProviderReference `json:"dependencies,omitempty"`
}

// Instances is the pouch of every known instance, keyed by InstanceId.
type Instances struct {
	ByID map[InstanceId]*Instance `json:"byId"`
}

// NewInstances returns an empty Instances pouch.
func NewInstances() *Instances {
	return &Instances{ByID: make(map[InstanceId]*Instance)}
}

// Get returns the instance with id, or nil if unknown.
func (p *Instances) Get(id InstanceId) *Instance {
	if p.ByID == nil {
		return nil
	}
	return p.ByID[id]
}

// Put records or replaces an instance.
func (p *Instances) Put(inst *Instance) {
	if p.ByID == nil {
		p.ByID = make(map[InstanceId]*Instance)
	}
	p.ByID[inst.ID] = inst
}

// Delete removes an instance, returning whether it existed.
func (p *Instances) Delete(id InstanceId) bool {
	if _, ok := p.ByID[id]; !ok {
		return false
	}
	delete(p.ByID, id)
	return true
}

// RunningDependentsOn returns every running instance holding an unresolved
// default reference to feature — used by delete_default_provider's
// precondition check.
func (p *Instances) RunningDependentsOn(feature manifest.FeatureKey) []*Instance {
	var out []*Instance
	for _, inst := range p.ByID {
		if inst.Desired != DesiredRunning {
			continue
		}
		for _, ref := range inst.Dependencies {
			if ref.ProvidedFeature == feature && ref.ProviderReference.Default {
				out = append(out, inst)
				break
			}
		}
	}
	return out
}
