// Package reverseproxy declares the routing-document side of the reverse
// proxy an Instance's editors are exposed through. Serving the proxied
// traffic itself is out of scope; this package only tracks which instance
// port an editor maps to, the way a sidecar or external proxy process
// would consume to build its own routing table.
package reverseproxy

import "flecsd/internal/vault/pouch"

// EntryConfig is one editor's published reverse-proxy entry: a port on the
// instance's network address, reachable under editorName.
type EntryConfig struct {
	EditorName string
	Port       int
	TargetIP   string
	TargetPort int
}

// ReverseProxy manages the on-disk (or otherwise externally consumed)
// routing documents for instances' reverse-proxied editors.
type ReverseProxy interface {
	// AddInstanceConfig writes the proxy entry for one editor port.
	AddInstanceConfig(instanceID pouch.InstanceId, entry EntryConfig) error
	// DeleteInstanceConfig removes the proxy entry for one editor port.
	DeleteInstanceConfig(instanceID pouch.InstanceId, port int) error
	// AddAdditionalLocations writes the path-prefix rewrite table for an
	// instance (manifest editor_path_prefixes).
	AddAdditionalLocations(instanceID pouch.InstanceId, prefixes map[string]string) error
	// DeleteAdditionalLocations clears an instance's path-prefix table.
	DeleteAdditionalLocations(instanceID pouch.InstanceId) error
}
