package provider

import (
	"fmt"

	"flecsd/internal/manifest"
	"flecsd/internal/vault/pouch"
)

// ErrInstanceNotFound is returned whenever an operation names an instance
// id that has no entry in the instances pouch.
type ErrInstanceNotFound struct{ ID pouch.InstanceId }

func (e *ErrInstanceNotFound) Error() string {
	return fmt.Sprintf("provider: instance %s does not exist", e.ID)
}

// ErrProviderNotFound is returned when a referenced provider instance
// doesn't exist.
type ErrProviderNotFound struct{ ID pouch.InstanceId }

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider: provider instance %s does not exist", e.ID)
}

// ErrProviderDoesNotProvide is returned when a candidate provider's
// manifest doesn't list feature under provides.
type ErrProviderDoesNotProvide struct {
	ID      pouch.InstanceId
	Feature manifest.FeatureKey
}

func (e *ErrProviderDoesNotProvide) Error() string {
	return fmt.Sprintf("provider: instance %s does not provide feature %s", e.ID, e.Feature)
}

// ErrDoesNotDepend is returned when an instance's manifest does not
// declare the named dependency key.
type ErrDoesNotDepend struct {
	InstanceID pouch.InstanceId
	Key        string
}

func (e *ErrDoesNotDepend) Error() string {
	return fmt.Sprintf("provider: instance %s does not depend on %s", e.InstanceID, e.Key)
}

// ErrInstanceRunning is returned when a dependency operation requires the
// instance to be stopped.
type ErrInstanceRunning struct{ InstanceID pouch.InstanceId }

func (e *ErrInstanceRunning) Error() string {
	return fmt.Sprintf("provider: instance %s is running, dependency can not be changed", e.InstanceID)
}

// ErrNoDefaultProvider is returned when resolving a Default
// ProviderReference finds no entry in default_providers.
type ErrNoDefaultProvider struct{ Feature manifest.FeatureKey }

func (e *ErrNoDefaultProvider) Error() string {
	return fmt.Sprintf("provider: no default provider for feature %s", e.Feature)
}

// ErrKeyDoesNotContainFeature is returned when a requested feature isn't
// part of the dependency key's feature alternation.
type ErrKeyDoesNotContainFeature struct {
	Key     manifest.DependencyKey
	Feature manifest.FeatureKey
}

func (e *ErrKeyDoesNotContainFeature) Error() string {
	return fmt.Sprintf("provider: dependency key %s does not contain feature %s", e.Key, e.Feature)
}

// ErrFeatureConfigNotMatching is returned when the provider's value for
// feature fails the JSON matcher against the dependency's declared
// config.
type ErrFeatureConfigNotMatching struct {
	ProviderID pouch.InstanceId
	Feature    manifest.FeatureKey
	Err        error
}

func (e *ErrFeatureConfigNotMatching) Error() string {
	return fmt.Sprintf("provider: instance %s provides feature %s, but config does not match: %v", e.ProviderID, e.Feature, e.Err)
}

func (e *ErrFeatureConfigNotMatching) Unwrap() error { return e.Err }

// ErrProviderInUse is returned by DeleteDefaultProvider when Running
// instances still hold an unresolved default reference to the feature.
type ErrProviderInUse struct {
	Feature   manifest.FeatureKey
	Instances []InstanceRef
}

// InstanceRef names one instance by id and app key, used in
// ErrProviderInUse's dependent list.
type InstanceRef struct {
	ID     pouch.InstanceId
	AppKey manifest.AppKey
}

func (e *ErrProviderInUse) Error() string {
	return fmt.Sprintf("provider: default provider for feature %s is still in use (%v)", e.Feature, e.Instances)
}

// ErrDoesNotProvide is returned by PutCoreAuthProvider when the resolved
// instance's manifest doesn't declare an auth specific-provider.
type ErrDoesNotProvide struct{ ID pouch.InstanceId }

func (e *ErrDoesNotProvide) Error() string {
	return fmt.Sprintf("provider: instance %s does not provide feature auth", e.ID)
}

// ErrDefaultProviderNotSet is returned by PutCoreAuthProvider when a
// Default reference is given but no default auth provider exists.
var ErrDefaultProviderNotSet = fmt.Errorf("provider: no default provider set for feature auth")
