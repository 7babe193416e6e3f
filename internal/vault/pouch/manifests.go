package pouch

import (
	"encoding/json"
	"fmt"
	"strings"

	"flecsd/internal/manifest"
)

// ManifestEntry pairs a stored manifest with the number of instances
// referencing it; uninstall_app is only permitted once RefCount reaches 0.
type ManifestEntry struct {
	Manifest manifest.Manifest
	RefCount int
}

// Manifests is the pouch of every installed app manifest, keyed by AppKey.
type Manifests struct {
	ByKey map[manifest.AppKey]*ManifestEntry
}

// NewManifests returns an empty Manifests pouch.
func NewManifests() *Manifests {
	return &Manifests{ByKey: make(map[manifest.AppKey]*ManifestEntry)}
}

// Get returns the entry for key, or nil if not installed.
func (p *Manifests) Get(key manifest.AppKey) *ManifestEntry {
	if p.ByKey == nil {
		return nil
	}
	return p.ByKey[key]
}

// Put installs or replaces a manifest, preserving any existing refcount.
func (p *Manifests) Put(m manifest.Manifest) {
	if p.ByKey == nil {
		p.ByKey = make(map[manifest.AppKey]*ManifestEntry)
	}
	key := m.Key()
	refCount := 0
	if existing, ok := p.ByKey[key]; ok {
		refCount = existing.RefCount
	}
	p.ByKey[key] = &ManifestEntry{Manifest: m, RefCount: refCount}
}

// Delete removes key unconditionally; callers must check RefCount==0 first.
func (p *Manifests) Delete(key manifest.AppKey) bool {
	if _, ok := p.ByKey[key]; !ok {
		return false
	}
	delete(p.ByKey, key)
	return true
}

// IncRef / DecRef adjust an entry's instance refcount.
func (p *Manifests) IncRef(key manifest.AppKey) {
	if e, ok := p.ByKey[key]; ok {
		e.RefCount++
	}
}

func (p *Manifests) DecRef(key manifest.AppKey) {
	if e, ok := p.ByKey[key]; ok && e.RefCount > 0 {
		e.RefCount--
	}
}

// --- JSON encoding ---
//
// manifest.Manifest is an interface; we persist it as a tagged envelope
// keyed by variant, and AppKey as a "name@version" string since Go map
// keys must be strings (or TextMarshalers) for JSON.

type manifestEnvelope struct {
	Kind   string            `json:"kind"`
	Single *manifest.Single  `json:"single,omitempty"`
	Multi  *manifest.Multi   `json:"multi,omitempty"`
}

func encodeManifest(m manifest.Manifest) (manifestEnvelope, error) {
	switch v := m.(type) {
	case *manifest.Single:
		return manifestEnvelope{Kind: "single", Single: v}, nil
	case *manifest.Multi:
		return manifestEnvelope{Kind: "multi", Multi: v}, nil
	default:
		return manifestEnvelope{}, fmt.Errorf("pouch: unknown manifest variant %T", m)
	}
}

func (e manifestEnvelope) decode() (manifest.Manifest, error) {
	switch e.Kind {
	case "single":
		return e.Single, nil
	case "multi":
		return e.Multi, nil
	default:
		return nil, fmt.Errorf("pouch: unknown manifest kind %q", e.Kind)
	}
}

func appKeyString(k manifest.AppKey) string {
	return k.Name + "@" + k.Version
}

func parseAppKey(s string) (manifest.AppKey, error) {
	idx := strings.LastIndex(s, "@")
	if idx < 0 {
		return manifest.AppKey{}, fmt.Errorf("pouch: invalid app key %q", s)
	}
	return manifest.AppKey{Name: s[:idx], Version: s[idx+1:]}, nil
}

type manifestEntryJSON struct {
	Manifest manifestEnvelope `json:"manifest"`
	RefCount int              `json:"refCount"`
}

// MarshalJSON implements a stable on-disk representation for the pouch.
func (p Manifests) MarshalJSON() ([]byte, error) {
	out := make(map[string]manifestEntryJSON, len(p.ByKey))
	for k, e := range p.ByKey {
		env, err := encodeManifest(e.Manifest)
		if err != nil {
			return nil, err
		}
		out[appKeyString(k)] = manifestEntryJSON{Manifest: env, RefCount: e.RefCount}
	}
	return json.Marshal(out)
}

// UnmarshalJSON is tolerant of a missing/empty file: an absent pouch loads
// as an empty collection per the Vault's load-defaults-on-missing policy.
func (p *Manifests) UnmarshalJSON(data []byte) error {
	var raw map[string]manifestEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ByKey = make(map[manifest.AppKey]*ManifestEntry, len(raw))
	for ks, v := range raw {
		k, err := parseAppKey(ks)
		if err != nil {
			return err
		}
		m, err := v.Manifest.decode()
		if err != nil {
			return err
		}
		p.ByKey[k] = &ManifestEntry{Manifest: m, RefCount: v.RefCount}
	}
	return nil
}
