// Package pouch holds the typed collections (the Vault's "pouches") and
// their entry types: manifests, instances, deployments, providers,
// secrets and system state. The Vault (internal/vault) owns locking,
// reservation and persistence; this package only defines what's inside
// each pouch and how an entry serializes.
package pouch

import (
	"fmt"
	"strconv"
)

// InstanceId is a 32-bit identifier, random on create, rendered as
// zero-padded 8-hex for container/hostname naming.
type InstanceId uint32

// Hex renders the id as zero-padded 8 lowercase hex digits.
func (id InstanceId) Hex() string {
	return fmt.Sprintf("%08x", uint32(id))
}

// Hostname is the container hostname derived from the id: "flecs-<hex>".
func (id InstanceId) Hostname() string {
	return "flecs-" + id.Hex()
}

// MarshalText implements encoding.TextMarshaler so InstanceId can be used
// directly as a JSON object key.
func (id InstanceId) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *InstanceId) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 16, 32)
	if err != nil {
		return fmt.Errorf("pouch: invalid instance id %q: %w", text, err)
	}
	*id = InstanceId(v)
	return nil
}

func (id InstanceId) String() string { return id.Hex() }

// NetworkId, VolumeId and DeploymentId are opaque identifiers assigned by
// the underlying container runtime (or, for networks, chosen by the
// caller); they're treated as plain strings outside the deployment layer.
type NetworkId string
type VolumeId string
type DeploymentId string

// IPAddr is a dotted-decimal or colon-hex address string. Kept as a plain
// string at the pouch layer; arithmetic (subnet transfer) happens in
// internal/instance using net.ParseIP on demand.
type IPAddr string
