package instance

import (
	"fmt"

	"flecsd/internal/vault/pouch"
)

// ErrInstanceNotFound is returned whenever an operation names an instance
// id with no entry in the instances pouch.
type ErrInstanceNotFound struct{ ID pouch.InstanceId }

func (e *ErrInstanceNotFound) Error() string {
	return fmt.Sprintf("instance: %s does not exist", e.ID)
}

// ErrNoDefaultNetwork is returned by CreateInstance when the deployment
// resolves a default network with no name.
var ErrNoDefaultNetwork = fmt.Errorf("instance: deployment has no named default network")

// ErrInspectNetwork is returned when a connected network's subnet can't be
// parsed during an IP transfer.
type ErrInspectNetwork struct {
	NetworkID string
	Err       error
}

func (e *ErrInspectNetwork) Error() string {
	return fmt.Sprintf("instance: could not inspect network %s: %v", e.NetworkID, e.Err)
}

func (e *ErrInspectNetwork) Unwrap() error { return e.Err }

// ErrNoFittingNetwork is returned by an IP transfer when the new network's
// address family doesn't match the instance's existing address.
type ErrNoFittingNetwork struct{ NetworkID string }

func (e *ErrNoFittingNetwork) Error() string {
	return fmt.Sprintf("instance: network %s has no address of a matching family", e.NetworkID)
}

// ErrUnknownNetwork is returned by an IP transfer when the network id is
// not known to the deployment.
type ErrUnknownNetwork struct{ NetworkID string }

func (e *ErrUnknownNetwork) Error() string {
	return fmt.Sprintf("instance: unknown network %s", e.NetworkID)
}
