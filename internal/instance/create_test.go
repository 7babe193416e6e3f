package instance

import (
	"context"
	"errors"
	"os"
	"testing"

	"flecsd/internal/deployment"
	"flecsd/internal/manifest"
	"flecsd/internal/vault/pouch"
)

func TestCreateInstanceRoundTrip(t *testing.T) {
	single := testManifest()
	single.VolumeMounts = []manifest.VolumeMount{{Name: "data", ContainerPath: "/data"}}
	single.ConfigFiles = []manifest.ConfigFile{{HostPath: "app.conf", ContainerPath: "/etc/app.conf"}}

	e, v := newTestEngine(t, &deployment.Mock{})
	r := fullReservation(v)

	inst := createTestInstance(t, e, r, single)
	if inst.Desired != pouch.DesiredStopped {
		t.Fatalf("expected Desired stopped, got %q", inst.Desired)
	}
	if len(inst.Config.VolumeMounts) != 1 {
		t.Fatalf("expected 1 volume mount, got %d", len(inst.Config.VolumeMounts))
	}
	if len(inst.Config.Networks) != 1 {
		t.Fatalf("expected 1 network entry, got %d", len(inst.Config.Networks))
	}
	if _, err := os.Stat(e.configDir(inst.ID)); err != nil {
		t.Fatalf("expected config dir to exist: %v", err)
	}
}

func TestCreateInstanceNoDefaultNetworkFails(t *testing.T) {
	single := testManifest()
	dep := &deployment.Mock{
		DefaultNetworkFunc: func(ctx context.Context) (deployment.Network, error) {
			return deployment.Network{}, nil
		},
	}
	e, v := newTestEngine(t, dep)
	r := fullReservation(v)
	r.Manifests().Put(single)

	_, err := e.CreateInstance(context.Background(), r, single, "test", "172.17.0.5")
	if !errors.Is(err, ErrNoDefaultNetwork) {
		t.Fatalf("expected ErrNoDefaultNetwork, got %v", err)
	}
}

func TestCreateInstanceRollsBackVolumesOnPartialFailure(t *testing.T) {
	single := testManifest()
	single.VolumeMounts = []manifest.VolumeMount{
		{Name: "first", ContainerPath: "/first"},
		{Name: "second", ContainerPath: "/second"},
	}

	var created []string
	var deleted []string
	dep := &deployment.Mock{
		CreateVolumeFunc: func(ctx context.Context, name string) (string, error) {
			if len(created) == 1 {
				return "", errors.New("boom")
			}
			created = append(created, name)
			return name, nil
		},
		DeleteVolumeFunc: func(ctx context.Context, id string) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	e, v := newTestEngine(t, dep)
	r := fullReservation(v)
	r.Manifests().Put(single)

	_, err := e.CreateInstance(context.Background(), r, single, "test", "172.17.0.5")
	if err == nil {
		t.Fatal("expected error from partial volume creation failure")
	}
	if len(deleted) != 1 {
		t.Fatalf("expected the one already-created volume to be rolled back, got %v", deleted)
	}
}
