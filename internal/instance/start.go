package instance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"flecsd/internal/deployment"
	"flecsd/internal/logger"
	"flecsd/internal/reverseproxy"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

// defaultNetworkIP returns the instance's address on its default network
// (the network resolved via Deployment.DefaultNetwork() at creation time),
// not an arbitrary connected network — an instance can be connected to more
// than one network and only the default one routes editor traffic.
func defaultNetworkIP(inst *pouch.Instance) (string, bool) {
	if inst.Config.DefaultNetworkID == "" {
		return "", false
	}
	addr, ok := inst.Config.Networks[inst.Config.DefaultNetworkID]
	if !ok {
		return "", false
	}
	return string(addr), true
}

// StartInstance implements the cooperative start flow: marks desired
// Running, writes reverse-proxy entries for reverse-proxied editors, and
// starts the container.
func (e *Engine) StartInstance(ctx context.Context, r *vault.Reservation, id pouch.InstanceId) error {
	inst := r.Instances().Get(id)
	if inst == nil {
		return &ErrInstanceNotFound{ID: id}
	}
	inst.Desired = pouch.DesiredRunning
	r.Instances().Put(inst)
	r.MarkInstancesDirty()

	status, err := e.Deployment.InstanceStatus(ctx, id.Hex())
	if err != nil {
		return fmt.Errorf("instance: query status: %w", err)
	}
	if status == deployment.StatusRunning {
		return nil
	}

	single, err := manifestFor(r, inst)
	if err != nil {
		return err
	}

	ip, hasIP := defaultNetworkIP(inst)
	for _, editor := range single.Editors {
		if !editor.SupportsReverseProxy || !hasIP {
			continue
		}
		if err := e.Proxy.AddInstanceConfig(id, reverseproxy.EntryConfig{
			EditorName: editor.Name,
			Port:       editor.Port,
			TargetIP:   ip,
			TargetPort: editor.Port,
		}); err != nil {
			return fmt.Errorf("instance: write reverse proxy entry for %s: %w", editor.Name, err)
		}
	}
	if len(inst.Config.EditorPathPrefixes) > 0 {
		if err := e.Proxy.AddAdditionalLocations(id, inst.Config.EditorPathPrefixes); err != nil {
			return fmt.Errorf("instance: write additional locations: %w", err)
		}
	} else if err := e.Proxy.DeleteAdditionalLocations(id); err != nil {
		return fmt.Errorf("instance: clear additional locations: %w", err)
	}

	// Ports and env follow the instance's current manifest, so a manifest
	// replaced by UpdateInstance takes effect on this start.
	inst.Config.Ports = single.Ports
	inst.Config.Env = single.Env

	cfg := e.buildContainerConfig(inst, single)
	dir := e.configDir(id)
	configFiles := configFileTransfers(dir, single)

	if _, err := e.Deployment.StartInstance(ctx, cfg, id.Hex(), configFiles); err != nil {
		if delErr := e.Deployment.DeleteInstance(ctx, id.Hex()); delErr != nil {
			logger.GetLogger(ctx).Warn("instance: compensating container removal failed after start error",
				zap.String("instance_id", id.Hex()), zap.Error(delErr))
		}
		return fmt.Errorf("instance: start container: %w", err)
	}
	return nil
}
