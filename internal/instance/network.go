package instance

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"flecsd/internal/deployment"
	"flecsd/internal/logger"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

// DisconnectNetwork implements Disconnect(network_id): if the instance is
// running, disconnects it at the runtime first; then removes the
// connected-network mapping. An unknown network is a no-op returning nil.
func (e *Engine) DisconnectNetwork(ctx context.Context, r *vault.Reservation, id pouch.InstanceId, networkID string) (*string, error) {
	inst := r.Instances().Get(id)
	if inst == nil {
		return nil, &ErrInstanceNotFound{ID: id}
	}
	netID := pouch.NetworkId(networkID)
	prevAddr, exists := inst.Config.Networks[netID]
	if !exists {
		return nil, nil
	}

	status, err := e.Deployment.InstanceStatus(ctx, id.Hex())
	if err != nil {
		return nil, fmt.Errorf("instance: query status: %w", err)
	}
	if status == deployment.StatusRunning {
		if err := e.Deployment.DisconnectNetwork(ctx, networkID, id.Hex()); err != nil {
			return nil, fmt.Errorf("instance: disconnect network %s: %w", networkID, err)
		}
	}

	delete(inst.Config.Networks, netID)
	r.Instances().Put(inst)
	r.MarkInstancesDirty()
	prev := string(prevAddr)
	return &prev, nil
}

// ConnectNetwork implements Connect(network_id, ipv4): if running, first
// disconnects (logging but not aborting on failure), then connects at the
// runtime (failure surfaced), then stores the new mapping. If not
// running, only the mapping is stored.
func (e *Engine) ConnectNetwork(ctx context.Context, r *vault.Reservation, id pouch.InstanceId, networkID, ipv4 string) (*string, error) {
	inst := r.Instances().Get(id)
	if inst == nil {
		return nil, &ErrInstanceNotFound{ID: id}
	}
	netID := pouch.NetworkId(networkID)
	prevAddr, hadPrev := inst.Config.Networks[netID]

	status, err := e.Deployment.InstanceStatus(ctx, id.Hex())
	if err != nil {
		return nil, fmt.Errorf("instance: query status: %w", err)
	}
	if status == deployment.StatusRunning {
		if err := e.Deployment.DisconnectNetwork(ctx, networkID, id.Hex()); err != nil {
			logger.GetLogger(ctx).Warn("instance: pre-connect disconnect failed",
				zap.String("instance_id", id.Hex()), zap.String("network_id", networkID), zap.Error(err))
		}
		if err := e.Deployment.ConnectNetwork(ctx, networkID, ipv4, id.Hex()); err != nil {
			return nil, fmt.Errorf("instance: connect network %s: %w", networkID, err)
		}
	}

	if inst.Config.Networks == nil {
		inst.Config.Networks = make(map[pouch.NetworkId]pouch.IPAddr)
	}
	inst.Config.Networks[netID] = pouch.IPAddr(ipv4)
	r.Instances().Put(inst)
	r.MarkInstancesDirty()

	if hadPrev {
		prev := string(prevAddr)
		return &prev, nil
	}
	return nil, nil
}

// TransferNetworkIP computes the address oldIP keeps when moving to
// newNetworkID's address space: the host bits are preserved, the network
// bits are adopted from the new network's matching-family subnet.
// Formally new_ip = network.address | (old_ip & ^subnet_mask).
func (e *Engine) TransferNetworkIP(ctx context.Context, newNetworkID, oldIP string) (string, error) {
	network, err := e.Deployment.GetNetwork(ctx, newNetworkID)
	if err != nil {
		if errors.Is(err, deployment.ErrNetworkNotFound) {
			return "", &ErrUnknownNetwork{NetworkID: newNetworkID}
		}
		return "", fmt.Errorf("instance: inspect network %s: %w", newNetworkID, err)
	}

	oldParsed := net.ParseIP(oldIP)
	if oldParsed == nil {
		return "", &ErrInspectNetwork{NetworkID: newNetworkID, Err: fmt.Errorf("unparseable address %q", oldIP)}
	}

	for _, subnet := range network.Subnets {
		_, ipnet, err := net.ParseCIDR(subnet)
		if err != nil {
			return "", &ErrInspectNetwork{NetworkID: newNetworkID, Err: err}
		}

		oldV4, netV4 := oldParsed.To4(), ipnet.IP.To4()
		var oldBytes, netBytes, maskBytes []byte
		switch {
		case oldV4 != nil && netV4 != nil:
			oldBytes, netBytes, maskBytes = oldV4, netV4, ipnet.Mask
		case oldV4 == nil && netV4 == nil:
			oldBytes, netBytes, maskBytes = oldParsed.To16(), ipnet.IP.To16(), ipnet.Mask
		default:
			continue
		}

		newBytes := make([]byte, len(oldBytes))
		for i := range newBytes {
			newBytes[i] = netBytes[i] | (oldBytes[i] &^ maskBytes[i])
		}
		return net.IP(newBytes).String(), nil
	}

	return "", &ErrNoFittingNetwork{NetworkID: newNetworkID}
}
