package docker

import (
	"bytes"
	"context"
	"fmt"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	dockernetwork "github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"flecsd/internal/deployment"
)

// StartInstance creates and starts a container for cfg, staging
// configFiles as bind mounts first (read-only where the entry is marked
// ReadOnly). If id is empty, Docker
// assigns a name; otherwise containerName(id) is used so future lookups
// by instance id succeed.
func (d *Deployment) StartInstance(ctx context.Context, cfg deployment.ContainerConfig, id string, configFiles []deployment.ConfigFileTransfer) (string, error) {
	containerCfg := buildContainerConfig(cfg)
	hostCfg := buildHostConfig(cfg, configFiles)
	netCfg := buildNetworkConfig(cfg)

	name := ""
	if id != "" {
		name = containerName(id)
	}

	resp, err := d.client.ContainerCreate(ctx, containerCfg, hostCfg, netCfg, nil, name)
	if err != nil {
		return "", opErr("StartInstance", id, err, true)
	}

	if err := d.client.ContainerStart(ctx, resp.ID, dockercontainer.StartOptions{}); err != nil {
		d.client.ContainerRemove(ctx, resp.ID, dockercontainer.RemoveOptions{Force: true})
		return "", opErr("StartInstance", id, err, true)
	}

	return resp.ID, nil
}

// StopInstance stops the instance's container and, for every non-read-only
// configFiles entry, copies the container path back to the host path.
func (d *Deployment) StopInstance(ctx context.Context, id string, configFiles []deployment.ConfigFileTransfer) error {
	containerID, err := d.findContainer(ctx, id)
	if err != nil {
		return err
	}

	timeout := int(defaultStopTimeout.Seconds())
	if err := d.client.ContainerStop(ctx, containerID, dockercontainer.StopOptions{Timeout: &timeout}); err != nil {
		return opErr("StopInstance", id, err, true)
	}

	for _, cf := range configFiles {
		if cf.ReadOnly {
			continue
		}
		if err := d.copyContainerFileToHost(ctx, containerID, cf.ContainerPath, cf.HostPath); err != nil {
			return opErr("StopInstance", id, fmt.Errorf("copy back %s: %w", cf.ContainerPath, err), true)
		}
	}
	return nil
}

// DeleteInstance force-removes the instance's container.
func (d *Deployment) DeleteInstance(ctx context.Context, id string) error {
	containerID, err := d.findContainer(ctx, id)
	if err != nil {
		if err == deployment.ErrInstanceNotFound {
			return nil
		}
		return err
	}
	if err := d.client.ContainerRemove(ctx, containerID, dockercontainer.RemoveOptions{Force: true, RemoveVolumes: false}); err != nil {
		return opErr("DeleteInstance", id, err, true)
	}
	return nil
}

// InstanceStatus maps the container's Docker state per spec §4.3.
func (d *Deployment) InstanceStatus(ctx context.Context, id string) (deployment.Status, error) {
	containerID, err := d.findContainer(ctx, id)
	if err != nil {
		if err == deployment.ErrInstanceNotFound {
			return deployment.StatusStopped, nil
		}
		return deployment.StatusUnknown, err
	}
	inspect, err := d.client.ContainerInspect(ctx, containerID)
	if err != nil {
		return deployment.StatusUnknown, opErr("InstanceStatus", id, err, true)
	}
	return mapDockerStatus(inspect.State), nil
}

// InstanceLogs returns the instance's demultiplexed stdout/stderr.
func (d *Deployment) InstanceLogs(ctx context.Context, id string) (deployment.InstanceLogs, error) {
	containerID, err := d.findContainer(ctx, id)
	if err != nil {
		return deployment.InstanceLogs{}, err
	}
	reader, err := d.client.ContainerLogs(ctx, containerID, dockercontainer.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return deployment.InstanceLogs{}, opErr("InstanceLogs", id, err, true)
	}
	defer reader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return deployment.InstanceLogs{}, opErr("InstanceLogs", id, err, true)
	}
	return deployment.InstanceLogs{Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// CopyFromInstance copies src out of the running instance container to dst.
func (d *Deployment) CopyFromInstance(ctx context.Context, id, src, dst string, isFile bool) error {
	containerID, err := d.findContainer(ctx, id)
	if err != nil {
		return err
	}
	rc, _, err := d.client.CopyFromContainer(ctx, containerID, src)
	if err != nil {
		return opErr("CopyFromInstance", id, err, true)
	}
	defer rc.Close()
	return extractTarEntry(rc, dst, isFile)
}

// CopyToInstance copies a single host file at src into the instance
// container at dst.
func (d *Deployment) CopyToInstance(ctx context.Context, id, src, dst string, isFile bool) error {
	containerID, err := d.findContainer(ctx, id)
	if err != nil {
		return err
	}
	tarBuf, err := tarFromHostPath(src, dst, isFile)
	if err != nil {
		return opErr("CopyToInstance", id, err, false)
	}
	if err := d.client.CopyToContainer(ctx, containerID, "/", tarBuf, dockercontainer.CopyToContainerOptions{}); err != nil {
		return opErr("CopyToInstance", id, err, true)
	}
	return nil
}

func (d *Deployment) copyContainerFileToHost(ctx context.Context, containerID, containerPath, hostPath string) error {
	rc, _, err := d.client.CopyFromContainer(ctx, containerID, containerPath)
	if err != nil {
		return err
	}
	defer rc.Close()
	return extractTarEntry(rc, hostPath, true)
}

// buildContainerConfig implements the container-config construction
// rules of spec §4.4.1.
func buildContainerConfig(cfg deployment.ContainerConfig) *dockercontainer.Config {
	exposed := nat.PortSet{}
	for _, p := range cfg.Ports {
		for port := p.ContainerPortFrom; port <= p.ContainerPortTo; port++ {
			exposed[nat.Port(fmt.Sprintf("%d/%s", port, p.Protocol))] = struct{}{}
		}
	}

	labels := map[string]string{labelManaged: "true"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}

	return &dockercontainer.Config{
		Hostname:     cfg.Hostname,
		Image:        cfg.Image,
		Cmd:          cfg.Command,
		Env:          cfg.Env,
		ExposedPorts: exposed,
		Labels:       labels,
	}
}

func buildHostConfig(cfg deployment.ContainerConfig, configFiles []deployment.ConfigFileTransfer) *dockercontainer.HostConfig {
	hostCfg := &dockercontainer.HostConfig{
		RestartPolicy: dockercontainer.RestartPolicy{Name: "unless-stopped"},
	}

	for _, cf := range configFiles {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   cf.HostPath,
			Target:   cf.ContainerPath,
			ReadOnly: cf.ReadOnly,
		})
	}
	for _, bm := range cfg.BindMounts {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   bm.HostPath,
			Target:   bm.ContainerPath,
			ReadOnly: bm.ReadOnly,
		})
	}
	for _, vm := range cfg.VolumeMounts {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:   mount.TypeVolume,
			Source: vm.VolumeID,
			Target: vm.ContainerPath,
		})
	}

	portMap := nat.PortMap{}
	for _, p := range cfg.Ports {
		for off := 0; p.ContainerPortFrom+off <= p.ContainerPortTo; off++ {
			port := nat.Port(fmt.Sprintf("%d/%s", p.ContainerPortFrom+off, p.Protocol))
			hostPort := fmt.Sprintf("%d", p.HostPortFrom+off)
			portMap[port] = append(portMap[port], nat.PortBinding{HostIP: "0.0.0.0", HostPort: hostPort})
		}
	}
	hostCfg.PortBindings = portMap

	hostCfg.CapAdd = cfg.Capabilities

	for _, dev := range cfg.Devices {
		hostCfg.Devices = append(hostCfg.Devices, dockercontainer.DeviceMapping{
			PathOnHost:        dev.HostPath,
			PathInContainer:   dev.ContainerPath,
			CgroupPermissions: dev.Permissions,
		})
	}

	for host, ip := range cfg.ExtraHosts {
		hostCfg.ExtraHosts = append(hostCfg.ExtraHosts, fmt.Sprintf("%s:%s", host, ip))
	}

	return hostCfg
}

func buildNetworkConfig(cfg deployment.ContainerConfig) *dockernetwork.NetworkingConfig {
	endpoints := map[string]*dockernetwork.EndpointSettings{}
	for _, ep := range cfg.Networks {
		settings := &dockernetwork.EndpointSettings{Aliases: ep.Aliases}
		if ep.IPv4 != "" || ep.IPv6 != "" {
			settings.IPAMConfig = &dockernetwork.EndpointIPAMConfig{
				IPv4Address: ep.IPv4,
				IPv6Address: ep.IPv6,
			}
		}
		endpoints[ep.NetworkID] = settings
	}
	return &dockernetwork.NetworkingConfig{EndpointsConfig: endpoints}
}
