package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flecsd/internal/manifest"
	"flecsd/internal/vault/pouch"
)

func TestReserveAndRelease(t *testing.T) {
	v, err := Open(t.TempDir())
	require.NoError(t, err)

	r := v.Reserve(Request{Instances: Exclusive})
	r.Instances().Put(&pouch.Instance{ID: pouch.InstanceId(1), Name: "n", Desired: pouch.DesiredStopped})
	r.MarkInstancesDirty()
	require.NoError(t, r.Release())

	r2 := v.Reserve(Request{Instances: Shared})
	defer r2.Release()
	got := r2.Instances().Get(pouch.InstanceId(1))
	require.NotNil(t, got)
	assert.Equal(t, "n", got.Name)
}

func TestUnreservedPouchAccessPanics(t *testing.T) {
	v, err := Open(t.TempDir())
	require.NoError(t, err)
	r := v.Reserve(Request{Instances: Shared})
	defer r.Release()
	assert.Panics(t, func() { r.Manifests() })
}

func TestPersistenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir)
	require.NoError(t, err)

	r := v.Reserve(Request{Manifests: Exclusive})
	r.Manifests().Put(&manifest.Single{AppKey: manifest.AppKey{Name: "tech.flecs.app", Version: "1.0.0"}, Image: "registry/app:1.0"})
	r.MarkManifestsDirty()
	require.NoError(t, r.Release())

	v2, err := Open(dir)
	require.NoError(t, err)
	r2 := v2.Reserve(Request{Manifests: Shared})
	defer r2.Release()
	entry := r2.Manifests().Get(manifest.AppKey{Name: "tech.flecs.app", Version: "1.0.0"})
	require.NotNil(t, entry)
	single, ok := entry.Manifest.(*manifest.Single)
	require.True(t, ok)
	assert.Equal(t, "registry/app:1.0", single.Image)
}

func TestExclusiveReservationBlocksConcurrentExclusive(t *testing.T) {
	v, err := Open(t.TempDir())
	require.NoError(t, err)

	r1 := v.Reserve(Request{Instances: Exclusive})

	acquired := make(chan struct{})
	go func() {
		r2 := v.Reserve(Request{Instances: Exclusive})
		close(acquired)
		r2.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("second exclusive reservation acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, r1.Release())

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second exclusive reservation never acquired after release")
	}
}

func TestFixedOrderAcquisitionAcrossMultiplePouches(t *testing.T) {
	v, err := Open(t.TempDir())
	require.NoError(t, err)

	// Two callers requesting overlapping pouches in different field order
	// must not deadlock thanks to the fixed acquisition order.
	done := make(chan struct{}, 2)
	go func() {
		r := v.Reserve(Request{Instances: Exclusive, Providers: Shared})
		time.Sleep(10 * time.Millisecond)
		r.Release()
		done <- struct{}{}
	}()
	go func() {
		r := v.Reserve(Request{Providers: Shared, Instances: Exclusive})
		time.Sleep(10 * time.Millisecond)
		r.Release()
		done <- struct{}{}
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("deadlock across overlapping pouch reservations")
		}
	}
}
