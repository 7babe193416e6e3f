// Package vault implements the process-wide, pouch-structured state store:
// typed collections (manifests, instances, deployments, providers,
// secrets, system) guarded by a fixed-order reservation scheme so callers
// can never deadlock regardless of how many pouches a single operation
// touches, and atomic JSON snapshot persistence per pouch.
package vault

import (
	"path/filepath"
	"sync"

	"flecsd/internal/secrets"
	"flecsd/internal/vault/pouch"
)

// lockedPouch pairs one pouch's data with the RWMutex that guards it and
// the on-disk path it snapshots to. T is always a pointer to a concrete
// pouch type (e.g. *pouch.Instances).
type lockedPouch[T any] struct {
	mu    sync.RWMutex
	dirty bool
	path  string
	data  T
}

// Vault is the daemon's single process-wide state store.
type Vault struct {
	rootDir string

	manifests   *lockedPouch[*pouch.Manifests]
	deployments *lockedPouch[*pouch.Deployments]
	instances   *lockedPouch[*pouch.Instances]
	providers   *lockedPouch[*pouch.Providers]
	secrets     *lockedPouch[*pouch.Secrets]
	system      *lockedPouch[*pouch.System]
}

// Open constructs a Vault rooted at <rootDir>/vault, loading each pouch
// from its JSON file if present, or starting it empty otherwise.
func Open(rootDir string) (*Vault, error) {
	dir := filepath.Join(rootDir, "vault")

	v := &Vault{
		rootDir:     rootDir,
		manifests:   &lockedPouch[*pouch.Manifests]{path: filepath.Join(dir, "manifests.json"), data: pouch.NewManifests()},
		deployments: &lockedPouch[*pouch.Deployments]{path: filepath.Join(dir, "deployments.json"), data: pouch.NewDeployments()},
		instances:   &lockedPouch[*pouch.Instances]{path: filepath.Join(dir, "instances.json"), data: pouch.NewInstances()},
		providers:   &lockedPouch[*pouch.Providers]{path: filepath.Join(dir, "providers.json"), data: pouch.NewProviders()},
		secrets:     &lockedPouch[*pouch.Secrets]{path: filepath.Join(dir, "secrets.json"), data: pouch.NewSecrets()},
		system:      &lockedPouch[*pouch.System]{path: filepath.Join(dir, "system.json"), data: pouch.NewSystem()},
	}

	if err := loadJSONOrDefault(v.manifests.path, v.manifests.data); err != nil {
		return nil, err
	}
	if err := loadJSONOrDefault(v.deployments.path, v.deployments.data); err != nil {
		return nil, err
	}
	if err := loadJSONOrDefault(v.instances.path, v.instances.data); err != nil {
		return nil, err
	}
	if err := loadJSONOrDefault(v.providers.path, v.providers.data); err != nil {
		return nil, err
	}
	if err := loadJSONOrDefault(v.secrets.path, v.secrets.data); err != nil {
		return nil, err
	}
	if err := loadJSONOrDefault(v.system.path, v.system.data); err != nil {
		return nil, err
	}

	return v, nil
}

// DecryptSecretEntry and EncryptSecretEntry apply internal/secrets'
// field-level encryption to a secrets-pouch entry using
// pouch.SecretConfigPaths. Nothing in the daemon calls them, and the Vault
// never calls them itself — the Vault persists whatever values the caller
// put there.
func EncryptSecretEntry(e *pouch.SecretEntry) error {
	if e == nil {
		return nil
	}
	return secrets.EncryptFields(e.Config, pouch.SecretConfigPaths)
}

func DecryptSecretEntry(e *pouch.SecretEntry) error {
	if e == nil {
		return nil
	}
	return secrets.DecryptFields(e.Config, pouch.SecretConfigPaths)
}
