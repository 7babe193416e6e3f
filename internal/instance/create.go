package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"flecsd/internal/manifest"
	"flecsd/internal/utils"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

func (e *Engine) allocateInstanceID(r *vault.Reservation) (pouch.InstanceId, error) {
	for attempt := 0; attempt < 32; attempt++ {
		raw, err := utils.GenerateRandomUint32()
		if err != nil {
			return 0, fmt.Errorf("instance: allocate id: %w", err)
		}
		id := pouch.InstanceId(raw)
		if r.Instances().Get(id) == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("instance: could not allocate a unique instance id")
}

func editorPathPrefixes(single *manifest.Single) map[string]string {
	prefixes := make(map[string]string)
	for _, editor := range single.Editors {
		for _, loc := range editor.AdditionalLocations {
			prefixes[loc] = editor.Name
		}
	}
	if len(prefixes) == 0 {
		return nil
	}
	return prefixes
}

// CreateInstance implements the create-new flow: allocates an id, stages
// config files and volumes, and records a Stopped instance.
func (e *Engine) CreateInstance(ctx context.Context, r *vault.Reservation, single *manifest.Single, name, ipv4 string) (*pouch.Instance, error) {
	id, err := e.allocateInstanceID(r)
	if err != nil {
		return nil, err
	}
	hostname := id.Hostname()

	network, err := e.Deployment.DefaultNetwork(ctx)
	if err != nil {
		return nil, fmt.Errorf("instance: resolve default network: %w", err)
	}
	if network.Name == "" {
		return nil, ErrNoDefaultNetwork
	}

	dir := e.configDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("instance: create config dir: %w", err)
	}
	for _, cf := range single.ConfigFiles {
		hostPath := filepath.Join(dir, filepath.Base(cf.HostPath))
		if err := e.Deployment.CopyFromAppImage(ctx, single.Image, cf.ContainerPath, hostPath, true); err != nil {
			removeDirBestEffort(dir)
			return nil, fmt.Errorf("instance: stage config file %s: %w", cf.ContainerPath, err)
		}
	}

	createdVolumes := make(map[pouch.VolumeId]string)
	for _, vm := range single.VolumeMounts {
		volName := fmt.Sprintf("flecs-%s-%s", id.Hex(), vm.Name)
		volID, err := e.Deployment.CreateVolume(ctx, volName)
		if err != nil {
			for existing := range createdVolumes {
				_ = e.Deployment.DeleteVolume(ctx, string(existing))
			}
			removeDirBestEffort(dir)
			return nil, fmt.Errorf("instance: create volume %s: %w", volName, err)
		}
		createdVolumes[pouch.VolumeId(volID)] = vm.ContainerPath
	}

	cfg := pouch.InstanceConfig{
		Env:                single.Env,
		Ports:              single.Ports,
		VolumeMounts:       createdVolumes,
		Networks:           map[pouch.NetworkId]pouch.IPAddr{pouch.NetworkId(network.ID): pouch.IPAddr(ipv4)},
		DefaultNetworkID:   pouch.NetworkId(network.ID),
		EditorPathPrefixes: editorPathPrefixes(single),
	}

	inst := &pouch.Instance{
		ID:           id,
		Name:         name,
		Hostname:     hostname,
		ManifestKey:  single.Key(),
		DeploymentID: e.DeploymentID,
		Config:       cfg,
		Desired:      pouch.DesiredStopped,
	}
	r.Instances().Put(inst)
	r.MarkInstancesDirty()
	return inst, nil
}
