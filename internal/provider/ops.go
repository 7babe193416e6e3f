// Package provider implements the dependency/provider JSON matching
// engine and the operations that bind instance dependencies to concrete
// providers, all operating over reserved vault pouches.
package provider

import (
	"encoding/json"
	"fmt"

	"flecsd/internal/manifest"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

func decodeJSON(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("provider: decode json: %w", err)
	}
	return v, nil
}

func manifestOf(r *vault.Reservation, key manifest.AppKey) manifest.Manifest {
	entry := r.Manifests().Get(key)
	if entry == nil {
		return nil
	}
	return entry.Manifest
}

// SetDefaultProvider registers id as the default provider for feature.
// id must exist and its manifest must list feature under provides.
// Returns the previously registered default, if any.
func SetDefaultProvider(r *vault.Reservation, feature manifest.FeatureKey, id pouch.InstanceId) (pouch.InstanceId, bool, error) {
	inst := r.Instances().Get(id)
	if inst == nil {
		return 0, false, &ErrProviderNotFound{ID: id}
	}
	m := manifestOf(r, inst.ManifestKey)
	if m == nil || !providesFeature(m, feature) {
		return 0, false, &ErrProviderDoesNotProvide{ID: id, Feature: feature}
	}
	prev, had := r.Providers().SetDefaultProvider(feature, id)
	return prev, had, nil
}

func providesFeature(m manifest.Manifest, feature manifest.FeatureKey) bool {
	_, ok := manifest.Provides(m)[feature]
	return ok
}

// DeleteDefaultProvider removes the default provider mapping for feature,
// refusing if any Running instance holds an unresolved default reference
// to it.
func DeleteDefaultProvider(r *vault.Reservation, feature manifest.FeatureKey) (pouch.InstanceId, bool, error) {
	if _, had := r.Providers().DefaultProvider(feature); !had {
		return 0, false, nil
	}

	dependents := r.Instances().RunningDependentsOn(feature)
	if len(dependents) > 0 {
		refs := make([]InstanceRef, 0, len(dependents))
		for _, inst := range dependents {
			refs = append(refs, InstanceRef{ID: inst.ID, AppKey: inst.ManifestKey})
		}
		return 0, false, &ErrProviderInUse{Feature: feature, Instances: refs}
	}

	id, had := r.Providers().DefaultProvider(feature)
	r.Providers().DeleteDefaultProvider(feature)
	return id, had, nil
}

// resolveProviderReference resolves a ProviderReference to a concrete
// instance id, failing if Default is requested but unset.
func resolveProviderReference(r *vault.Reservation, feature manifest.FeatureKey, ref pouch.ProviderReference) (pouch.InstanceId, error) {
	if !ref.Default {
		return ref.Provider, nil
	}
	id, had := r.Providers().DefaultProvider(feature)
	if !had {
		return 0, &ErrNoDefaultProvider{Feature: feature}
	}
	return id, nil
}

// SetDependency implements spec §4.5's set_dependency: validates feature
// membership in depKey, resolves the provider reference, matches the
// provider's value against the dependency's declared config, and (only
// if the instance is not Running) stores the binding. Returns the prior
// binding for depKey, if any.
func SetDependency(r *vault.Reservation, depKey manifest.DependencyKey, feature manifest.FeatureKey, id pouch.InstanceId, ref pouch.ProviderReference) (*pouch.StoredProviderReference, error) {
	inst := r.Instances().Get(id)
	if inst == nil {
		return nil, &ErrInstanceNotFound{ID: id}
	}

	if !depKey.Contains(feature) {
		return nil, &ErrKeyDoesNotContainFeature{Key: depKey, Feature: feature}
	}

	m := manifestOf(r, inst.ManifestKey)
	if m == nil {
		return nil, &ErrDoesNotDepend{InstanceID: id, Key: string(depKey)}
	}
	depCfg, ok := manifest.Depends(m)[depKey]
	if !ok {
		return nil, &ErrDoesNotDepend{InstanceID: id, Key: string(depKey)}
	}
	dependencyRaw := depCfg.ForFeature(feature)
	dependencyValue, err := decodeJSON(dependencyRaw)
	if err != nil {
		return nil, err
	}

	providerID, err := resolveProviderReference(r, feature, ref)
	if err != nil {
		return nil, err
	}
	provider := r.Instances().Get(providerID)
	if provider == nil {
		return nil, &ErrProviderNotFound{ID: providerID}
	}
	providerManifest := manifestOf(r, provider.ManifestKey)
	if providerManifest == nil {
		return nil, &ErrProviderDoesNotProvide{ID: providerID, Feature: feature}
	}
	providerRaw, ok := manifest.Provides(providerManifest)[feature]
	if !ok {
		return nil, &ErrProviderDoesNotProvide{ID: providerID, Feature: feature}
	}
	providerValue, err := decodeJSON(providerRaw)
	if err != nil {
		return nil, err
	}

	if err := configMatches(providerValue, dependencyValue); err != nil {
		return nil, &ErrFeatureConfigNotMatching{ProviderID: providerID, Feature: feature, Err: err}
	}

	if inst.Desired == pouch.DesiredRunning {
		return nil, &ErrInstanceRunning{InstanceID: id}
	}

	prev, had := inst.Dependencies[depKey]
	if inst.Dependencies == nil {
		inst.Dependencies = make(map[manifest.DependencyKey]pouch.StoredProviderReference)
	}
	inst.Dependencies[depKey] = pouch.StoredProviderReference{ProviderReference: ref, ProvidedFeature: feature}
	r.Instances().Put(inst)

	if had {
		return &prev, nil
	}
	return nil, nil
}

// ClearDependency removes depKey's binding on instance id, refusing if
// the instance is Running.
func ClearDependency(r *vault.Reservation, depKey manifest.DependencyKey, id pouch.InstanceId) (*pouch.StoredProviderReference, error) {
	inst := r.Instances().Get(id)
	if inst == nil {
		return nil, &ErrInstanceNotFound{ID: id}
	}
	m := manifestOf(r, inst.ManifestKey)
	if m == nil || !manifest.DeclaresDependency(m, depKey) {
		return nil, &ErrDoesNotDepend{InstanceID: id, Key: string(depKey)}
	}
	prev, had := inst.Dependencies[depKey]
	if !had {
		return nil, nil
	}
	if inst.Desired == pouch.DesiredRunning {
		return nil, &ErrInstanceRunning{InstanceID: id}
	}
	delete(inst.Dependencies, depKey)
	r.Instances().Put(inst)
	return &prev, nil
}

// FeatureError pairs a feature that failed dependency resolution with the
// error that caused it, returned by SetDefaultDependency when every
// feature of a key fails.
type FeatureError struct {
	Feature manifest.FeatureKey
	Err     error
}

// SetDefaultDependency tries set_dependency with a Default reference for
// each feature in depKey's alternation, in order, returning the first
// feature that succeeds. If every feature fails, returns the full list
// of per-feature errors.
func SetDefaultDependency(r *vault.Reservation, depKey manifest.DependencyKey, id pouch.InstanceId) (manifest.FeatureKey, []FeatureError) {
	var errs []FeatureError
	for _, feature := range depKey.Features() {
		if _, err := SetDependency(r, depKey, feature, id, pouch.ProviderReference{Default: true}); err != nil {
			errs = append(errs, FeatureError{Feature: feature, Err: err})
			continue
		}
		return feature, nil
	}
	return "", errs
}

// SetDefaultDependencies runs SetDefaultDependency for every dependency
// declared on instance id's manifest, returning one human-readable detail
// line per dependency for the caller to attach to a Quest.
func SetDefaultDependencies(r *vault.Reservation, id pouch.InstanceId) ([]string, error) {
	inst := r.Instances().Get(id)
	if inst == nil {
		return nil, &ErrInstanceNotFound{ID: id}
	}
	m := manifestOf(r, inst.ManifestKey)
	if m == nil {
		return nil, &ErrInstanceNotFound{ID: id}
	}

	var details []string
	for depKey := range manifest.Depends(m) {
		feature, errs := SetDefaultDependency(r, depKey, id)
		if errs == nil {
			details = append(details, fmt.Sprintf("solved dependency %s with default provider for feature %s", depKey, feature))
			continue
		}
		for _, fe := range errs {
			details = append(details, fmt.Sprintf("could not use default provider for %s for dependency %s: %v", fe.Feature, depKey, fe.Err))
		}
	}
	return details, nil
}

// PutCoreAuthProvider validates that the referenced (or default) instance
// declares an auth feature and stores it as the core auth provider,
// returning the previously stored instance id if any.
func PutCoreAuthProvider(r *vault.Reservation, ref pouch.ProviderReference) (pouch.InstanceId, bool, error) {
	var id pouch.InstanceId
	if ref.Default {
		resolved, had := r.Providers().DefaultProvider(manifest.FeatureKey("auth"))
		if !had {
			return 0, false, ErrDefaultProviderNotSet
		}
		id = resolved
	} else {
		id = ref.Provider
	}

	inst := r.Instances().Get(id)
	if inst == nil {
		return 0, false, &ErrProviderNotFound{ID: id}
	}
	m := manifestOf(r, inst.ManifestKey)
	if m == nil || !providesFeature(m, manifest.FeatureKey("auth")) {
		return 0, false, &ErrDoesNotProvide{ID: id}
	}

	prev, had := r.Providers().CoreAuthProvider()
	r.Providers().SetCoreAuthProvider(id)
	return prev, had, nil
}
