package instance

import (
	"context"
	"errors"
	"testing"

	"flecsd/internal/deployment"
	"flecsd/internal/manifest"
	"flecsd/internal/reverseproxy"
	"flecsd/internal/vault/pouch"
)

func TestStartInstanceAddsReverseProxyEntryForEditor(t *testing.T) {
	single := testManifest()
	single.Editors = []manifest.Editor{{Name: "web", Port: 8080, SupportsReverseProxy: true}}

	var added []reverseproxy.EntryConfig
	e, v := newTestEngine(t, &deployment.Mock{})
	e.Proxy = &reverseproxy.Mock{
		AddInstanceConfigFunc: func(id pouch.InstanceId, entry reverseproxy.EntryConfig) error {
			added = append(added, entry)
			return nil
		},
	}
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	if err := e.StartInstance(context.Background(), r, inst.ID); err != nil {
		t.Fatalf("StartInstance: %v", err)
	}
	if len(added) != 1 || added[0].Port != 8080 {
		t.Fatalf("expected one reverse-proxy entry for port 8080, got %v", added)
	}
	got := r.Instances().Get(inst.ID)
	if got.Desired != "Running" {
		t.Fatalf("expected Desired Running, got %q", got.Desired)
	}
}

func TestStartInstanceUsesDefaultNetworkIPNotAnArbitraryOne(t *testing.T) {
	single := testManifest()
	single.Editors = []manifest.Editor{{Name: "web", Port: 8080, SupportsReverseProxy: true}}

	var added []reverseproxy.EntryConfig
	e, v := newTestEngine(t, &deployment.Mock{})
	e.Proxy = &reverseproxy.Mock{
		AddInstanceConfigFunc: func(id pouch.InstanceId, entry reverseproxy.EntryConfig) error {
			added = append(added, entry)
			return nil
		},
	}
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	// Connect a second network. defaultNetworkIP must keep pointing at the
	// network recorded as the default at creation time, not whichever
	// entry a map iteration happens to surface first.
	if _, err := e.ConnectNetwork(context.Background(), r, inst.ID, "second-net", "10.0.0.9"); err != nil {
		t.Fatalf("ConnectNetwork: %v", err)
	}

	if err := e.StartInstance(context.Background(), r, inst.ID); err != nil {
		t.Fatalf("StartInstance: %v", err)
	}
	if len(added) != 1 || added[0].TargetIP != "172.17.0.5" {
		t.Fatalf("expected reverse-proxy entry targeting the default network's IP 172.17.0.5, got %v", added)
	}
}

func TestStartInstanceAlreadyRunningIsNoop(t *testing.T) {
	single := testManifest()
	dep := &deployment.Mock{
		InstanceStatusFunc: func(ctx context.Context, id string) (deployment.Status, error) {
			return deployment.StatusRunning, nil
		},
		StartInstanceFunc: func(ctx context.Context, cfg deployment.ContainerConfig, id string, configFiles []deployment.ConfigFileTransfer) (string, error) {
			t.Fatal("StartInstance should not be called when already running")
			return "", nil
		},
	}
	e, v := newTestEngine(t, dep)
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	if err := e.StartInstance(context.Background(), r, inst.ID); err != nil {
		t.Fatalf("StartInstance: %v", err)
	}
}

func TestStartInstanceCompensatesOnFailure(t *testing.T) {
	single := testManifest()
	var deletedID string
	dep := &deployment.Mock{
		StartInstanceFunc: func(ctx context.Context, cfg deployment.ContainerConfig, id string, configFiles []deployment.ConfigFileTransfer) (string, error) {
			return "", errors.New("start failed")
		},
		DeleteInstanceFunc: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	e, v := newTestEngine(t, dep)
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	err := e.StartInstance(context.Background(), r, inst.ID)
	if err == nil {
		t.Fatal("expected start failure to surface")
	}
	if deletedID != inst.ID.Hex() {
		t.Fatalf("expected compensating delete of %s, got %q", inst.ID.Hex(), deletedID)
	}
	got := r.Instances().Get(inst.ID)
	if got.Desired != "Running" {
		t.Fatalf("expected Desired to remain Running after failed start, got %q", got.Desired)
	}
}
