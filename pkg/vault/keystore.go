package vault

import (
	"os"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// EnvKeystore is the default Keystore binding: it reads the vault's root
// secret from the environment variable named by entry. A real OS-native
// keystore (Keychain, Secret Service, DPAPI, ...) is an external
// collaborator per spec.md §1; this implementation exists so the core is
// runnable and testable without one, and fails closed exactly like a real
// keystore would when the entry is unset.
type EnvKeystore struct{}

func (EnvKeystore) Get(entry string) ([]byte, error) {
	val, ok := os.LookupEnv(entry)
	if !ok || val == "" {
		return nil, apperr.New(apperr.KindKeystoreUnavailable, "keystore.get", "entry not set")
	}
	return []byte(val), nil
}

// MemoryKeystore is a Keystore backed by an in-memory map, for tests.
type MemoryKeystore map[string][]byte

func (m MemoryKeystore) Get(entry string) ([]byte, error) {
	v, ok := m[entry]
	if !ok {
		return nil, apperr.New(apperr.KindKeystoreUnavailable, "keystore.get", "entry not set")
	}
	return v, nil
}
