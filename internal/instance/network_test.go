package instance

import (
	"context"
	"errors"
	"testing"

	"flecsd/internal/deployment"
)

func TestDisconnectNetworkUnknownIsNoop(t *testing.T) {
	single := testManifest()
	e, v := newTestEngine(t, &deployment.Mock{})
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	prev, err := e.DisconnectNetwork(context.Background(), r, inst.ID, "nonexistent")
	if err != nil {
		t.Fatalf("DisconnectNetwork: %v", err)
	}
	if prev != nil {
		t.Fatalf("expected nil previous address for unknown network, got %v", *prev)
	}
}

func TestDisconnectNetworkRemovesMapping(t *testing.T) {
	single := testManifest()
	e, v := newTestEngine(t, &deployment.Mock{})
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	var netID string
	for id := range inst.Config.Networks {
		netID = string(id)
	}

	prev, err := e.DisconnectNetwork(context.Background(), r, inst.ID, netID)
	if err != nil {
		t.Fatalf("DisconnectNetwork: %v", err)
	}
	if prev == nil || *prev != "172.17.0.5" {
		t.Fatalf("expected previous address 172.17.0.5, got %v", prev)
	}
	got := r.Instances().Get(inst.ID)
	if len(got.Config.Networks) != 0 {
		t.Fatalf("expected network mapping removed, got %v", got.Config.Networks)
	}
}

func TestConnectNetworkStoresMapping(t *testing.T) {
	single := testManifest()
	e, v := newTestEngine(t, &deployment.Mock{})
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	prev, err := e.ConnectNetwork(context.Background(), r, inst.ID, "extra-net", "10.0.0.7")
	if err != nil {
		t.Fatalf("ConnectNetwork: %v", err)
	}
	if prev != nil {
		t.Fatalf("expected no previous address for a brand new network slot, got %v", *prev)
	}
	got := r.Instances().Get(inst.ID)
	if string(got.Config.Networks["extra-net"]) != "10.0.0.7" {
		t.Fatalf("expected stored address 10.0.0.7, got %v", got.Config.Networks["extra-net"])
	}
}

func TestTransferNetworkIPPreservesHostBits(t *testing.T) {
	e, _ := newTestEngine(t, &deployment.Mock{
		GetNetworkFunc: func(ctx context.Context, id string) (deployment.Network, error) {
			return deployment.Network{ID: id, Subnets: []string{"10.20.0.0/16"}}, nil
		},
	})

	newIP, err := e.TransferNetworkIP(context.Background(), "net2", "192.168.5.42")
	if err != nil {
		t.Fatalf("TransferNetworkIP: %v", err)
	}
	if newIP != "10.20.5.42" {
		t.Fatalf("expected 10.20.5.42, got %s", newIP)
	}
}

func TestTransferNetworkIPUnknownNetwork(t *testing.T) {
	e, _ := newTestEngine(t, &deployment.Mock{
		GetNetworkFunc: func(ctx context.Context, id string) (deployment.Network, error) {
			return deployment.Network{}, deployment.ErrNetworkNotFound
		},
	})

	_, err := e.TransferNetworkIP(context.Background(), "gone", "192.168.5.42")
	var unknown *ErrUnknownNetwork
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownNetwork, got %v", err)
	}
}

func TestTransferNetworkIPNoFittingSubnet(t *testing.T) {
	e, _ := newTestEngine(t, &deployment.Mock{
		GetNetworkFunc: func(ctx context.Context, id string) (deployment.Network, error) {
			return deployment.Network{ID: id, Subnets: []string{"fd00::/64"}}, nil
		},
	})

	_, err := e.TransferNetworkIP(context.Background(), "net2", "192.168.5.42")
	var noFit *ErrNoFittingNetwork
	if !errors.As(err, &noFit) {
		t.Fatalf("expected ErrNoFittingNetwork, got %v", err)
	}
}
