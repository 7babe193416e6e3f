package instance

import (
	"fmt"
	"net"
	"path/filepath"

	"flecsd/internal/deployment"
	"flecsd/internal/manifest"
	"flecsd/internal/vault/pouch"
)

const dockerCapability = "DOCKER"

func configFileTransfers(dir string, single *manifest.Single) []deployment.ConfigFileTransfer {
	out := make([]deployment.ConfigFileTransfer, 0, len(single.ConfigFiles))
	for _, cf := range single.ConfigFiles {
		out = append(out, deployment.ConfigFileTransfer{
			HostPath:      filepath.Join(dir, filepath.Base(cf.HostPath)),
			ContainerPath: cf.ContainerPath,
			ReadOnly:      cf.ReadOnly,
		})
	}
	return out
}

func nonDockerCapabilities(single *manifest.Single) []string {
	out := make([]string, 0, len(single.Capabilities))
	for _, c := range single.Capabilities {
		if c != dockerCapability {
			out = append(out, c)
		}
	}
	return out
}

func bindMounts(single *manifest.Single) []deployment.BindMount {
	out := make([]deployment.BindMount, 0, len(single.BindMounts)+1)
	for _, bm := range single.BindMounts {
		out = append(out, deployment.BindMount{HostPath: bm.HostPath, ContainerPath: bm.ContainerPath, ReadOnly: bm.ReadOnly})
	}
	if single.HasCapability(dockerCapability) {
		out = append(out, deployment.BindMount{HostPath: "/var/run/docker.sock", ContainerPath: "/run/docker.sock"})
	}
	return out
}

func volumeMounts(cfg pouch.InstanceConfig) []deployment.VolumeMount {
	out := make([]deployment.VolumeMount, 0, len(cfg.VolumeMounts))
	for volID, containerPath := range cfg.VolumeMounts {
		out = append(out, deployment.VolumeMount{VolumeID: string(volID), ContainerPath: containerPath})
	}
	return out
}

func portBindings(ports []manifest.PortMapping) []deployment.PortBinding {
	out := make([]deployment.PortBinding, 0, len(ports))
	for _, p := range ports {
		out = append(out, deployment.PortBinding{
			Protocol:          p.Protocol,
			HostPortFrom:      p.HostPortFrom,
			HostPortTo:        p.HostPortTo,
			ContainerPortFrom: p.ContainerPortFrom,
			ContainerPortTo:   p.ContainerPortTo,
		})
	}
	return out
}

func deviceMappings(single *manifest.Single, usbDevices []pouch.USBDeviceConfig) []deployment.DeviceMapping {
	out := make([]deployment.DeviceMapping, 0, len(single.Devices)+len(usbDevices))
	for _, d := range single.Devices {
		out = append(out, deployment.DeviceMapping{HostPath: d.Path, ContainerPath: d.Path, Permissions: "rwm"})
	}
	for _, u := range usbDevices {
		path := fmt.Sprintf("/dev/bus/usb/%s/%s", u.Bus, u.Device)
		out = append(out, deployment.DeviceMapping{HostPath: path, ContainerPath: path, Permissions: "rwm"})
	}
	return out
}

func networkEndpoints(cfg pouch.InstanceConfig, hostname string) []deployment.NetworkEndpoint {
	out := make([]deployment.NetworkEndpoint, 0, len(cfg.Networks))
	for netID, addr := range cfg.Networks {
		ep := deployment.NetworkEndpoint{NetworkID: string(netID)}
		ip := net.ParseIP(string(addr))
		switch {
		case ip == nil:
		case ip.To4() != nil:
			ep.IPv4 = string(addr)
		default:
			ep.IPv6 = string(addr)
		}
		if hostname != "" {
			ep.Aliases = []string{hostname}
		}
		out = append(out, ep)
	}
	return out
}

// buildContainerConfig assembles the deployment.ContainerConfig for inst
// per the construction rules: bind/volume mounts, port bindings, forwarded
// capabilities, devices (manifest plus resolved USB passthrough), extra
// hosts, per-network endpoints and env/labels.
func (e *Engine) buildContainerConfig(inst *pouch.Instance, single *manifest.Single) deployment.ContainerConfig {
	return deployment.ContainerConfig{
		Hostname:     inst.Hostname,
		Image:        single.Image,
		Command:      single.Args,
		Env:          envStrings(inst.Config.Env),
		Labels:       labelStrings(single.Labels),
		BindMounts:   bindMounts(single),
		VolumeMounts: volumeMounts(inst.Config),
		Ports:        portBindings(inst.Config.Ports),
		Capabilities: nonDockerCapabilities(single),
		Devices:      deviceMappings(single, inst.Config.USBDevices),
		ExtraHosts:   e.extraHosts(),
		Networks:     networkEndpoints(inst.Config, single.Hostname),
	}
}
