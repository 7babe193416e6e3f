package pouch

// SecretConfigPaths lists the dot-paths, within a secrets entry's Config
// map, that internal/secrets encrypts at rest. Grounded on the teacher's
// runner.SecretConfigPaths list, narrowed to the deployment credentials
// this daemon actually handles (registry auth, TLS client identity).
var SecretConfigPaths = []string{
	"docker.registryAuth.username",
	"docker.registryAuth.password",
	"docker.certPEM",
	"docker.keyPEM",
	"docker.caPEM",
}

// SecretEntry is one config blob containing sensitive leaves, keyed by an
// owning entity (a deployment id, or "registry:<name>" for a named
// registry credential).
type SecretEntry struct {
	Config map[string]interface{} `json:"config"`
}

// Secrets is the pouch of encrypted-at-rest configuration blobs.
type Secrets struct {
	ByKey map[string]*SecretEntry `json:"byKey"`
}

// NewSecrets returns an empty Secrets pouch.
func NewSecrets() *Secrets {
	return &Secrets{ByKey: make(map[string]*SecretEntry)}
}

func (p *Secrets) Get(key string) *SecretEntry {
	if p.ByKey == nil {
		return nil
	}
	return p.ByKey[key]
}

func (p *Secrets) Put(key string, entry *SecretEntry) {
	if p.ByKey == nil {
		p.ByKey = make(map[string]*SecretEntry)
	}
	p.ByKey[key] = entry
}

func (p *Secrets) Delete(key string) bool {
	if _, ok := p.ByKey[key]; !ok {
		return false
	}
	delete(p.ByKey, key)
	return true
}
