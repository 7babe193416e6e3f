// Package secrets provides field-level AES-256-GCM encryption for sensitive
// fields within the Vault's secrets pouch.
//
// Non-secret pouches remain plaintext on disk. Encryption and decryption are
// explicit: internal/vault exposes EncryptSecretEntry/DecryptSecretEntry,
// which run a secrets-pouch entry's config map through
// EncryptFields/DecryptFields. The Vault's snapshot persistence does not call
// them, so a secrets entry is written to disk exactly as it is held in memory.
//
// # Architecture
//
// A secrets-pouch entry is a config map plus a list of dot-paths that name
// which leaves are sensitive.
//
//   - EncryptFields: encrypts the named dot-path fields in a config map
//   - DecryptFields: decrypts them back
//
// Encrypted values are stored with a "$flecs_enc$v1$" prefix followed by
// base64-encoded nonce + ciphertext + GCM tag; the older "$flecs_enc$" form
// is still decrypted. The prefix allows graceful migration — plaintext
// values pass through the decrypt path unchanged.
//
// # Initialization
//
// Call Init() at startup with a base64-encoded 32-byte AES key:
//
//	secrets.Init(keyBase64)
//
// If no key is provided, encryption is disabled and all operations are no-ops.
//
// # Secret field paths
//
// Fields are identified by dot-separated paths into JSON config maps, see
// vault/pouch.SecretConfigPaths for the set applied to secrets-pouch entries
// (registry credentials, TLS client certs).
package secrets
