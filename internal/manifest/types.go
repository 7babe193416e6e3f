// Package manifest holds the in-repo representation of an App manifest:
// the declarative description of what an Instance's container should look
// like, plus the feature provide/depend declarations the provider resolver
// (internal/provider) matches against. Parsing the on-wire manifest formats
// (the generated schema, legacy migrators) is external to this package;
// callers hand in an already-decoded Manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AppKey identifies a manifest by domain-reverse name and free-form,
// dot-segment-sortable version string.
type AppKey struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (k AppKey) String() string {
	return fmt.Sprintf("%s/%s", k.Name, k.Version)
}

// CompareVersions orders two version strings by comparing dot-separated
// segments lexicographically, left to right; a shorter common prefix sorts
// first. This mirrors the generated manifest model's own "free-form
// sortable string" treatment rather than pulling in a strict semver parser.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			if as[i] < bs[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

// FeatureKey names one unit of declared capability an instance may provide
// or depend on.
type FeatureKey string

// DependencyKey is a non-empty set of FeatureKeys joined by "|": the
// dependency is satisfied if any one listed feature is satisfied.
type DependencyKey string

// Features splits a DependencyKey on its unescaped "|" separators. Unlike
// the provider resolver's string-value alternation (internal/provider,
// which supports "\|" escaping inside a JSON string), a DependencyKey's
// feature list has no escaping rule of its own — "|" is always a separator.
func (k DependencyKey) Features() []FeatureKey {
	parts := strings.Split(string(k), "|")
	out := make([]FeatureKey, 0, len(parts))
	for _, p := range parts {
		out = append(out, FeatureKey(p))
	}
	return out
}

// Contains reports whether f is one of the features listed in k.
func (k DependencyKey) Contains(f FeatureKey) bool {
	for _, have := range k.Features() {
		if have == f {
			return true
		}
	}
	return false
}

// DependencyConfig is the JSON configuration attached to a declared
// dependency. Exactly one of OneOf or One is normally set: OneOf carries a
// distinct config per feature in the DependencyKey; One carries a single
// config used regardless of which feature resolves the dependency.
type DependencyConfig struct {
	OneOf map[FeatureKey]json.RawMessage `json:"oneOf,omitempty"`
	One   json.RawMessage                `json:"one,omitempty"`
}

// ForFeature returns the config to match against when feature resolves
// this dependency.
func (d DependencyConfig) ForFeature(feature FeatureKey) json.RawMessage {
	if d.OneOf != nil {
		return d.OneOf[feature]
	}
	return d.One
}

// ConfigFile is a manifest-declared file copied from the app image into an
// instance's config staging directory on create, and round-tripped back on
// stop unless ReadOnly.
type ConfigFile struct {
	HostPath      string `json:"hostPath"`
	ContainerPath string `json:"containerPath"`
	ReadOnly      bool   `json:"readOnly,omitempty"`
}

// Device is a host device node passed through to every instance of this
// app, independent of the USB hot-plug passthrough instances configure
// individually.
type Device struct {
	Path string `json:"path"`
}

// Editor is a web UI port an instance publishes, optionally exposed through
// the reverse proxy.
type Editor struct {
	Name                 string   `json:"name"`
	Port                 int      `json:"port"`
	SupportsReverseProxy bool     `json:"supportsReverseProxy,omitempty"`
	AdditionalLocations  []string `json:"additionalLocations,omitempty"`
}

// EnvVar is a manifest-declared environment binding.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Protocol is a transport protocol for a published port.
type Protocol string

const (
	ProtocolTCP  Protocol = "tcp"
	ProtocolUDP  Protocol = "udp"
	ProtocolSCTP Protocol = "sctp"
)

// PortMapping binds a host port (or range) to a container port (or range)
// of the same size over one protocol.
type PortMapping struct {
	Protocol          Protocol `json:"protocol"`
	HostPortFrom      int      `json:"hostPortFrom"`
	HostPortTo        int      `json:"hostPortTo,omitempty"`
	ContainerPortFrom int      `json:"containerPortFrom"`
	ContainerPortTo   int      `json:"containerPortTo,omitempty"`
}

// IsRange reports whether this mapping spans more than one port.
func (p PortMapping) IsRange() bool {
	return p.HostPortTo != 0 && p.HostPortTo != p.HostPortFrom
}

// HostRange returns the inclusive [from, to] host port range, collapsing a
// single-port mapping to a one-element range.
func (p PortMapping) HostRange() (from, to int) {
	if p.HostPortTo == 0 {
		return p.HostPortFrom, p.HostPortFrom
	}
	return p.HostPortFrom, p.HostPortTo
}

// ContainerRange returns the inclusive [from, to] container port range.
func (p PortMapping) ContainerRange() (from, to int) {
	if p.ContainerPortTo == 0 {
		return p.ContainerPortFrom, p.ContainerPortFrom
	}
	return p.ContainerPortFrom, p.ContainerPortTo
}

// BindMount is a manifest-declared host-path bind mount.
type BindMount struct {
	HostPath      string `json:"hostPath"`
	ContainerPath string `json:"containerPath"`
	ReadOnly      bool   `json:"readOnly,omitempty"`
}

// VolumeMount names a manifest-declared named volume and where it lands
// inside the container. The Vault/deployment layer prefixes the volume
// name with "flecs-<instance-id>-" on creation.
type VolumeMount struct {
	Name          string `json:"name"`
	ContainerPath string `json:"containerPath"`
}

// Manifest is the tagged union of the two manifest shapes spec.md §3
// describes: a Single container app, or a Multi (compose-style) app.
type Manifest interface {
	Key() AppKey
	isManifest()
}

// Single is a manifest describing one container image plus its resource
// declarations.
type Single struct {
	AppKey       AppKey                          `json:"appKey"`
	Image        string                          `json:"image"`
	Args         []string                        `json:"args,omitempty"`
	Capabilities []string                         `json:"capabilities,omitempty"`
	ConfigFiles  []ConfigFile                     `json:"configFiles,omitempty"`
	Devices      []Device                         `json:"devices,omitempty"`
	Editors      []Editor                         `json:"editors,omitempty"`
	Env          []EnvVar                         `json:"env,omitempty"`
	Hostname     string                           `json:"hostname,omitempty"`
	Labels       map[string]string                `json:"labels,omitempty"`
	Ports        []PortMapping                    `json:"ports,omitempty"`
	BindMounts   []BindMount                      `json:"bindMounts,omitempty"`
	VolumeMounts []VolumeMount                    `json:"volumeMounts,omitempty"`
	Depends      map[DependencyKey]DependencyConfig `json:"depends,omitempty"`
	Provides     map[FeatureKey]json.RawMessage   `json:"provides,omitempty"`
	Recommends   []AppKey                         `json:"recommends,omitempty"`
}

func (s *Single) Key() AppKey { return s.AppKey }
func (s *Single) isManifest() {}

// HasCapability reports whether cap is declared in the manifest's
// capability set (case-sensitive, e.g. "DOCKER").
func (s *Single) HasCapability(cap string) bool {
	for _, c := range s.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// Multi is a compose-style manifest: an opaque compose document plus the
// same dependency/provide declarations a Single carries.
type Multi struct {
	AppKey      AppKey                            `json:"appKey"`
	ComposeYAML string                            `json:"composeYaml"`
	Depends     map[DependencyKey]DependencyConfig `json:"depends,omitempty"`
	Provides    map[FeatureKey]json.RawMessage     `json:"provides,omitempty"`
	Recommends  []AppKey                           `json:"recommends,omitempty"`
}

func (m *Multi) Key() AppKey { return m.AppKey }
func (m *Multi) isManifest() {}

var (
	_ Manifest = (*Single)(nil)
	_ Manifest = (*Multi)(nil)
)
