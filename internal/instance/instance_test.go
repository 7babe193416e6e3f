package instance

import (
	"context"
	"testing"

	"flecsd/internal/deployment"
	"flecsd/internal/manifest"
	"flecsd/internal/reverseproxy"
	"flecsd/internal/usbdevice"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.Open(t.TempDir())
	if err != nil {
		t.Fatalf("vault.Open: %v", err)
	}
	return v
}

func fullReservation(v *vault.Vault) *vault.Reservation {
	return v.Reserve(vault.Request{
		Manifests: vault.Exclusive,
		Instances: vault.Exclusive,
	})
}

func testManifest() *manifest.Single {
	return &manifest.Single{
		AppKey: manifest.AppKey{Name: "app", Version: "1.0.0"},
		Image:  "app:1.0.0",
	}
}

func newTestEngine(t *testing.T, dep deployment.Deployment) (*Engine, *vault.Vault) {
	t.Helper()
	v := newTestVault(t)
	return &Engine{
		Deployment: dep,
		Proxy:      &reverseproxy.Mock{},
		USB:        &usbdevice.Mock{},
		BaseDir:    t.TempDir(),
	}, v
}

func createTestInstance(t *testing.T, e *Engine, r *vault.Reservation, single *manifest.Single) *pouch.Instance {
	t.Helper()
	r.Manifests().Put(single)
	inst, err := e.CreateInstance(context.Background(), r, single, "test", "172.17.0.5")
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	return inst
}
