package vault

import (
	"sync"

	"flecsd/internal/vault/pouch"
)

// Mode is the access mode a caller declares for one pouch in a Request.
type Mode int

const (
	// None means the pouch is not reserved; using its accessor panics.
	None Mode = iota
	// Shared is a read-only reservation; multiple holders may share it.
	Shared
	// Exclusive is a read-write reservation; only one holder at a time.
	Exclusive
)

// Request declares, per pouch, the access mode a caller needs. The zero
// value requests nothing. Pouches are always acquired in the fixed order
// manifests < deployments < instances < providers < secrets < system,
// regardless of the order fields are set here, so two callers racing for
// overlapping pouch sets can never deadlock.
type Request struct {
	Manifests   Mode
	Deployments Mode
	Instances   Mode
	Providers   Mode
	Secrets     Mode
	System      Mode
}

// Reservation is the capability returned by Vault.Reserve: it grants
// access only to the pouches named in the Request that produced it.
type Reservation struct {
	v     *Vault
	req   Request
	held  []func()
}

// Reserve acquires every pouch named in req, in the fixed global order, and
// returns the resulting Reservation. Reservations never fail — a request
// for a pouch already held by a conflicting reservation simply blocks until
// it's released.
func (v *Vault) Reserve(req Request) *Reservation {
	r := &Reservation{v: v, req: req}
	acquire(&v.manifests.mu, req.Manifests, &r.held)
	acquire(&v.deployments.mu, req.Deployments, &r.held)
	acquire(&v.instances.mu, req.Instances, &r.held)
	acquire(&v.providers.mu, req.Providers, &r.held)
	acquire(&v.secrets.mu, req.Secrets, &r.held)
	acquire(&v.system.mu, req.System, &r.held)
	return r
}

func acquire(mu *sync.RWMutex, mode Mode, held *[]func()) {
	switch mode {
	case Exclusive:
		mu.Lock()
		*held = append(*held, mu.Unlock)
	case Shared:
		mu.RLock()
		*held = append(*held, mu.RUnlock)
	}
}

// Manifests returns the reserved manifests pouch. Panics if not reserved.
func (r *Reservation) Manifests() *pouch.Manifests {
	requireReserved(r.req.Manifests, "manifests")
	return r.v.manifests.data
}

// MarkManifestsDirty flags the manifests pouch for a flush on Release. Only
// meaningful (and only valid to call) under an Exclusive reservation.
func (r *Reservation) MarkManifestsDirty() {
	requireExclusive(r.req.Manifests, "manifests")
	r.v.manifests.dirty = true
}

func (r *Reservation) Deployments() *pouch.Deployments {
	requireReserved(r.req.Deployments, "deployments")
	return r.v.deployments.data
}

func (r *Reservation) MarkDeploymentsDirty() {
	requireExclusive(r.req.Deployments, "deployments")
	r.v.deployments.dirty = true
}

func (r *Reservation) Instances() *pouch.Instances {
	requireReserved(r.req.Instances, "instances")
	return r.v.instances.data
}

func (r *Reservation) MarkInstancesDirty() {
	requireExclusive(r.req.Instances, "instances")
	r.v.instances.dirty = true
}

func (r *Reservation) Providers() *pouch.Providers {
	requireReserved(r.req.Providers, "providers")
	return r.v.providers.data
}

func (r *Reservation) MarkProvidersDirty() {
	requireExclusive(r.req.Providers, "providers")
	r.v.providers.dirty = true
}

func (r *Reservation) Secrets() *pouch.Secrets {
	requireReserved(r.req.Secrets, "secrets")
	return r.v.secrets.data
}

func (r *Reservation) MarkSecretsDirty() {
	requireExclusive(r.req.Secrets, "secrets")
	r.v.secrets.dirty = true
}

func (r *Reservation) System() *pouch.System {
	requireReserved(r.req.System, "system")
	return r.v.system.data
}

func (r *Reservation) MarkSystemDirty() {
	requireExclusive(r.req.System, "system")
	r.v.system.dirty = true
}

func requireReserved(mode Mode, name string) {
	if mode == None {
		panic("vault: " + name + " pouch not reserved")
	}
}

func requireExclusive(mode Mode, name string) {
	if mode != Exclusive {
		panic("vault: " + name + " pouch not exclusively reserved")
	}
}

// Release flushes every exclusively-held, dirty pouch to disk (in the same
// fixed order pouches are acquired) and then releases the locks in reverse
// acquisition order. The first persistence error encountered is returned,
// but every dirty pouch is still attempted and every lock is still
// released — a flush failure must never leave a pouch locked forever or
// another pouch un-flushed.
func (r *Reservation) Release() error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if r.req.Manifests == Exclusive && r.v.manifests.dirty {
		note(atomicWriteJSON(r.v.manifests.path, r.v.manifests.data))
		r.v.manifests.dirty = false
	}
	if r.req.Deployments == Exclusive && r.v.deployments.dirty {
		note(atomicWriteJSON(r.v.deployments.path, r.v.deployments.data))
		r.v.deployments.dirty = false
	}
	if r.req.Instances == Exclusive && r.v.instances.dirty {
		note(atomicWriteJSON(r.v.instances.path, r.v.instances.data))
		r.v.instances.dirty = false
	}
	if r.req.Providers == Exclusive && r.v.providers.dirty {
		note(atomicWriteJSON(r.v.providers.path, r.v.providers.data))
		r.v.providers.dirty = false
	}
	if r.req.Secrets == Exclusive && r.v.secrets.dirty {
		note(atomicWriteJSON(r.v.secrets.path, r.v.secrets.data))
		r.v.secrets.dirty = false
	}
	if r.req.System == Exclusive && r.v.system.dirty {
		note(atomicWriteJSON(r.v.system.path, r.v.system.data))
		r.v.system.dirty = false
	}

	for i := len(r.held) - 1; i >= 0; i-- {
		r.held[i]()
	}
	return firstErr
}
