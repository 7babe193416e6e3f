package docker

import (
	"context"

	dockernetwork "github.com/docker/docker/api/types/network"

	"flecsd/internal/deployment"
)

const defaultNetworkName = "flecsd"

// CreateNetwork creates a runtime network for cfg, mapping its requested
// NetworkKind to a Docker driver per spec §4.3's ipvlan rule.
func (d *Deployment) CreateNetwork(ctx context.Context, cfg deployment.NetworkConfig) (deployment.Network, error) {
	driver, ipvlanMode := deployment.NetworkDriver(cfg.Kind)

	options := map[string]string{}
	for k, v := range cfg.Options {
		options[k] = v
	}
	if ipvlanMode != "" {
		options["ipvlan_mode"] = ipvlanMode
	}
	if cfg.ParentAdapter != "" {
		options["parent"] = cfg.ParentAdapter
	}

	var ipam *dockernetwork.IPAM
	if cfg.Subnet != "" || cfg.Gateway != "" {
		ipam = &dockernetwork.IPAM{Config: []dockernetwork.IPAMConfig{{Subnet: cfg.Subnet, Gateway: cfg.Gateway}}}
	}

	resp, err := d.client.NetworkCreate(ctx, cfg.Name, dockernetwork.CreateOptions{
		Driver:  driver,
		Options: options,
		IPAM:    ipam,
		Internal: cfg.Kind == deployment.NetworkInternal,
	})
	if err != nil {
		return deployment.Network{}, opErr("CreateNetwork", cfg.Name, err, true)
	}
	return d.GetNetwork(ctx, resp.ID)
}

// DefaultNetwork returns the deployment's configured default network,
// creating it as a bridge network if it doesn't exist yet.
func (d *Deployment) DefaultNetwork(ctx context.Context) (deployment.Network, error) {
	name := d.config.Network
	if name == "" {
		name = defaultNetworkName
	}

	networks, err := d.Networks(ctx)
	if err != nil {
		return deployment.Network{}, err
	}
	for _, n := range networks {
		if n.Name == name {
			return n, nil
		}
	}

	return d.CreateNetwork(ctx, deployment.NetworkConfig{Name: name, Kind: deployment.NetworkBridge})
}

// DeleteNetwork removes a runtime network.
func (d *Deployment) DeleteNetwork(ctx context.Context, id string) error {
	if err := d.client.NetworkRemove(ctx, id); err != nil {
		return opErr("DeleteNetwork", id, err, true)
	}
	return nil
}

// GetNetwork inspects one runtime network by id or name.
func (d *Deployment) GetNetwork(ctx context.Context, id string) (deployment.Network, error) {
	inspect, err := d.client.NetworkInspect(ctx, id, dockernetwork.InspectOptions{})
	if err != nil {
		return deployment.Network{}, deployment.ErrNetworkNotFound
	}
	return networkFromInspect(inspect), nil
}

// Networks lists every runtime network known to the daemon.
func (d *Deployment) Networks(ctx context.Context) ([]deployment.Network, error) {
	list, err := d.client.NetworkList(ctx, dockernetwork.ListOptions{})
	if err != nil {
		return nil, opErr("Networks", "", err, true)
	}
	out := make([]deployment.Network, 0, len(list))
	for _, n := range list {
		full, err := d.client.NetworkInspect(ctx, n.ID, dockernetwork.InspectOptions{})
		if err != nil {
			continue
		}
		out = append(out, networkFromInspect(full))
	}
	return out, nil
}

// ConnectNetwork attaches instanceID's container to networkID at ip.
func (d *Deployment) ConnectNetwork(ctx context.Context, networkID, ip, instanceID string) error {
	containerID, err := d.findContainer(ctx, instanceID)
	if err != nil {
		return err
	}
	settings := &dockernetwork.EndpointSettings{}
	if ip != "" {
		settings.IPAMConfig = &dockernetwork.EndpointIPAMConfig{IPv4Address: ip}
	}
	if err := d.client.NetworkConnect(ctx, networkID, containerID, settings); err != nil {
		return opErr("ConnectNetwork", instanceID, err, true)
	}
	return nil
}

// DisconnectNetwork detaches instanceID's container from networkID.
func (d *Deployment) DisconnectNetwork(ctx context.Context, networkID, instanceID string) error {
	containerID, err := d.findContainer(ctx, instanceID)
	if err != nil {
		return err
	}
	if err := d.client.NetworkDisconnect(ctx, networkID, containerID, true); err != nil {
		return opErr("DisconnectNetwork", instanceID, err, true)
	}
	return nil
}

func networkFromInspect(inspect dockernetwork.Inspect) deployment.Network {
	n := deployment.Network{
		ID:   inspect.ID,
		Name: inspect.Name,
		Kind: networkKindFromDriver(inspect.Driver, inspect.Options),
	}
	if inspect.Options != nil {
		n.Options = inspect.Options
		n.ParentAdapter = inspect.Options["parent"]
	}
	for _, cfg := range inspect.IPAM.Config {
		if cfg.Subnet != "" {
			n.Subnets = append(n.Subnets, cfg.Subnet)
		}
		if cfg.Gateway != "" {
			n.Gateways = append(n.Gateways, cfg.Gateway)
		}
	}
	return n
}

// networkKindFromDriver inverts deployment.NetworkDriver: "ipvlan" alone is
// ambiguous between NetworkIpvlanL2 and NetworkIpvlanL3, so the ipvlan_mode
// option (set by CreateNetwork) disambiguates it. Every other driver maps
// back to its kind directly.
func networkKindFromDriver(driver string, options map[string]string) deployment.NetworkKind {
	if driver == "ipvlan" {
		switch options["ipvlan_mode"] {
		case "l3":
			return deployment.NetworkIpvlanL3
		default:
			return deployment.NetworkIpvlanL2
		}
	}
	return deployment.NetworkKind(driver)
}

var _ deployment.NetworkDeployment = (*Deployment)(nil)
