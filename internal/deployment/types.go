// Package deployment defines the polymorphic adapter over a container
// runtime: app, instance, volume and network operations, grouped into
// capability sets that a concrete Deployment may or may not implement.
package deployment

import (
	"context"
	"io"
	"time"

	"golang.org/x/oauth2"

	"flecsd/internal/manifest"
)

// Status is the runtime-observed state of one instance's container.
type Status string

const (
	StatusOrphaned Status = "orphaned"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusUnknown  Status = "unknown"
)

// NetworkKind is the requested kind of a Deployment-managed network.
type NetworkKind string

const (
	NetworkBridge   NetworkKind = "bridge"
	NetworkMACVLAN  NetworkKind = "macvlan"
	NetworkInternal NetworkKind = "internal"
	NetworkIpvlanL2 NetworkKind = "ipvlan_l2"
	NetworkIpvlanL3 NetworkKind = "ipvlan_l3"
)

// NetworkConfig describes a network a caller wants to exist; NetworkFits
// decides whether an existing Network already satisfies it.
type NetworkConfig struct {
	Name          string
	Kind          NetworkKind
	ParentAdapter string
	Subnet        string
	Gateway       string
	Options       map[string]string
}

// Network is a realized, runtime-observed network.
type Network struct {
	ID            string
	Name          string
	Kind          NetworkKind
	ParentAdapter string
	Subnets       []string
	Gateways      []string
	Options       map[string]string
}

// ContainerConfig is the fully-resolved input to start_instance, built by
// internal/instance per spec §4.4.1 from a manifest and an Instance record.
type ContainerConfig struct {
	Hostname     string
	Image        string
	Command      []string
	Env          []string
	Labels       map[string]string
	BindMounts   []BindMount
	VolumeMounts []VolumeMount
	Ports        []PortBinding
	Capabilities []string
	Devices      []DeviceMapping
	ExtraHosts   map[string]string
	Networks     []NetworkEndpoint
}

type BindMount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

type VolumeMount struct {
	VolumeID      string
	ContainerPath string
}

type PortBinding struct {
	Protocol          manifest.Protocol
	HostPortFrom      int
	HostPortTo        int
	ContainerPortFrom int
	ContainerPortTo   int
}

type DeviceMapping struct {
	HostPath      string
	ContainerPath string
	Permissions   string
}

type NetworkEndpoint struct {
	NetworkID string
	IPv4      string
	IPv6      string
	Aliases   []string
}

// InstanceLogs holds the demultiplexed stdout/stderr of one instance.
type InstanceLogs struct {
	Stdout string
	Stderr string
}

// ConfigFileTransfer names one config file to stage into, or copy back
// out of, an instance's container at a fixed host/container path pair.
type ConfigFileTransfer struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// AppInfo is the deployment's view of one installed app image.
type AppInfo struct {
	Key   manifest.AppKey
	Image string
	Size  int64
}

// AppDeployment manages app images: install/uninstall, inspection, and
// moving files in and out of an (uninstantiated) app image.
type AppDeployment interface {
	// InstallApp pulls the manifest's image. token carries registry
	// credentials for a private registry (its AccessToken is sent as the
	// registry bearer credential); nil for an unauthenticated pull.
	InstallApp(ctx context.Context, m manifest.Manifest, token *oauth2.Token) error
	UninstallApp(ctx context.Context, key manifest.AppKey) error
	IsAppInstalled(ctx context.Context, key manifest.AppKey) (bool, error)
	InstalledAppSize(ctx context.Context, key manifest.AppKey) (int64, error)
	ExportApp(ctx context.Context, key manifest.AppKey, path string) error
	ImportApp(ctx context.Context, path string) (manifest.AppKey, error)
	AppInfo(ctx context.Context, key manifest.AppKey) (AppInfo, error)
	CopyFromAppImage(ctx context.Context, image, src, dst string, isFile bool) error
}

// InstanceDeployment manages container instances of an app.
type InstanceDeployment interface {
	StartInstance(ctx context.Context, cfg ContainerConfig, id string, configFiles []ConfigFileTransfer) (string, error)
	StopInstance(ctx context.Context, id string, configFiles []ConfigFileTransfer) error
	DeleteInstance(ctx context.Context, id string) error
	InstanceStatus(ctx context.Context, id string) (Status, error)
	InstanceLogs(ctx context.Context, id string) (InstanceLogs, error)
	CopyFromInstance(ctx context.Context, id, src, dst string, isFile bool) error
	CopyToInstance(ctx context.Context, id, src, dst string, isFile bool) error
}

// VolumeDeployment manages named volumes and the volume-container
// import/export protocol.
type VolumeDeployment interface {
	CreateVolume(ctx context.Context, name string) (string, error)
	DeleteVolume(ctx context.Context, id string) error
	ImportVolume(ctx context.Context, srcFile, containerPath, name, image string) (string, error)
	ExportVolume(ctx context.Context, id, exportPath, containerPath, image string) error
}

// NetworkDeployment manages runtime networks and instance connectivity.
type NetworkDeployment interface {
	CreateNetwork(ctx context.Context, cfg NetworkConfig) (Network, error)
	DefaultNetwork(ctx context.Context) (Network, error)
	DeleteNetwork(ctx context.Context, id string) error
	GetNetwork(ctx context.Context, id string) (Network, error)
	Networks(ctx context.Context) ([]Network, error)
	ConnectNetwork(ctx context.Context, networkID, ip, instanceID string) error
	DisconnectNetwork(ctx context.Context, networkID, instanceID string) error
}

// Deployment is the full capability surface one runtime variant offers.
// Not every variant need implement every capability usefully — a compose
// variant, for instance, may only implement AppDeployment meaningfully —
// but every method of all four capability sets must be present to satisfy
// the interface; callers
// that need a specific capability type-assert for it.
type Deployment interface {
	AppDeployment
	InstanceDeployment
	VolumeDeployment
	NetworkDeployment

	// Kind identifies the deployment variant ("docker", "compose").
	Kind() string
}

// NetworkFits reports whether an existing network already satisfies a
// requested NetworkConfig, per the match predicate in spec §4.3: name and
// kind equal, requested subnet/gateway (if any) contained in the
// existing IPAM lists, parent adapter equal, and every requested option
// present with an equal value (extra existing options are fine).
func NetworkFits(existing Network, want NetworkConfig) bool {
	if existing.Name != want.Name || existing.Kind != want.Kind {
		return false
	}
	if existing.ParentAdapter != want.ParentAdapter {
		return false
	}
	if want.Subnet != "" && !containsStr(existing.Subnets, want.Subnet) {
		return false
	}
	if want.Gateway != "" && !containsStr(existing.Gateways, want.Gateway) {
		return false
	}
	for k, v := range want.Options {
		if existing.Options[k] != v {
			return false
		}
	}
	return true
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// NetworkDriver returns the runtime driver name and, for ipvlan kinds,
// the "ipvlan_mode" option value to set alongside it.
func NetworkDriver(kind NetworkKind) (driver string, ipvlanMode string) {
	switch kind {
	case NetworkIpvlanL2:
		return "ipvlan", "l2"
	case NetworkIpvlanL3:
		return "ipvlan", "l3"
	case NetworkBridge:
		return "bridge", ""
	case NetworkMACVLAN:
		return "macvlan", ""
	case NetworkInternal:
		return "internal", ""
	default:
		return string(kind), ""
	}
}

// LogStreamer is implemented by deployments whose InstanceLogs can be
// followed live rather than fetched as a single snapshot; optional.
type LogStreamer interface {
	StreamInstanceLogs(ctx context.Context, id string, since time.Time) (io.ReadCloser, error)
}
