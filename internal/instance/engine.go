// Package instance implements the Instance lifecycle engine (create,
// start, stop, delete, connect/disconnect, export, update): the layer
// that turns a manifest plus an Instance record into calls against a
// deployment.Deployment, coordinating the reverse proxy and USB
// passthrough collaborators around it.
package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"flecsd/internal/deployment"
	"flecsd/internal/manifest"
	"flecsd/internal/reverseproxy"
	"flecsd/internal/usbdevice"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

// coreGatewayHost is the extra-hosts alias every instance resolves to the
// deployment's core address, or "host-gateway" when none is configured.
const coreGatewayHost = "flecs-core-gateway"

// Engine wires the deployment backend and its reverse-proxy/USB
// collaborators to the pouch-persisted Instance records.
type Engine struct {
	Deployment   deployment.Deployment
	Proxy        reverseproxy.ReverseProxy
	USB          usbdevice.Reader
	DeploymentID pouch.DeploymentId

	// BaseDir roots every instance's config/backup staging directories.
	BaseDir string

	// CoreGatewayAddress is the known address of the core instance's
	// gateway, used for the extra-hosts binding; empty falls back to
	// Docker's "host-gateway" special value.
	CoreGatewayAddress string
}

func (e *Engine) configDir(id pouch.InstanceId) string {
	return filepath.Join(e.BaseDir, "instance_config", id.Hex())
}

func (e *Engine) backupDir(id pouch.InstanceId, version string) string {
	return filepath.Join(e.BaseDir, "backup", id.Hex(), version)
}

func manifestFor(r *vault.Reservation, inst *pouch.Instance) (*manifest.Single, error) {
	entry := r.Manifests().Get(inst.ManifestKey)
	if entry == nil {
		return nil, fmt.Errorf("instance: manifest %s not found for instance %s", inst.ManifestKey, inst.ID)
	}
	single, ok := entry.Manifest.(*manifest.Single)
	if !ok {
		return nil, fmt.Errorf("instance: manifest %s is not a single-container app", inst.ManifestKey)
	}
	return single, nil
}

func envStrings(env []manifest.EnvVar) []string {
	out := make([]string, 0, len(env))
	for _, e := range env {
		out = append(out, fmt.Sprintf("%s=%s", e.Key, e.Value))
	}
	return out
}

func labelStrings(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func (e *Engine) extraHosts() map[string]string {
	gateway := e.CoreGatewayAddress
	if gateway == "" {
		gateway = "host-gateway"
	}
	return map[string]string{coreGatewayHost: gateway}
}

func removeDirBestEffort(path string) {
	_ = os.RemoveAll(path)
}
