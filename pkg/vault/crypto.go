package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/wisbric/ai-shell/internal/apperr"
)

const (
	keySize   = 32 // AES-256
	nonceSize = 12 // GCM standard nonce size
)

// Keystore abstracts the OS-native secret store that holds the vault's root
// secret material (spec.md §4.1: "the key is derived from an OS keystore
// entry"). Concrete OS bindings (macOS Keychain, Secret Service, Windows
// DPAPI, ...) are external collaborators; this interface is the contract
// the vault depends on.
type Keystore interface {
	// Get returns the raw secret bytes stored under entry, or an
	// apperr.KindKeystoreUnavailable error if the entry does not exist.
	Get(entry string) ([]byte, error)
}

// deriveKey derives a 256-bit AES key from the keystore's root secret and a
// per-vault salt using PBKDF2-SHA256 with the configured iteration count.
func deriveKey(rootSecret, salt []byte, iterations int) []byte {
	return pbkdf2.Key(rootSecret, salt, iterations, keySize, sha256.New)
}

// seal encrypts plaintext under key with a fresh random nonce, returning the
// ciphertext (which includes the GCM authentication tag) and the nonce used.
func seal(key, plaintext []byte) (ciphertext []byte, nonce [nonceSize]byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nonce, apperr.Wrap(apperr.KindCryptoError, "vault.seal", "creating cipher", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, nonce, apperr.Wrap(apperr.KindCryptoError, "vault.seal", "creating GCM", err)
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, nonce, apperr.Wrap(apperr.KindCryptoError, "vault.seal", "generating nonce", err)
	}
	ciphertext = gcm.Seal(nil, nonce[:], plaintext, nil)
	return ciphertext, nonce, nil
}

// open decrypts ciphertext that was produced by seal under the same key and
// nonce. A decryption failure (tampering, wrong key) is reported as
// apperr.KindCryptoError; callers must quarantine rather than delete the
// credential (spec.md §4.1 Failures).
func open(key []byte, nonce [nonceSize]byte, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptoError, "vault.open", "creating cipher", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptoError, "vault.open", "creating GCM", err)
	}
	plaintext, err := gcm.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptoError, "vault.open", "authenticating/decrypting", err)
	}
	return plaintext, nil
}

// newSalt generates a random per-vault salt used for key derivation.
func newSalt() ([]byte, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}
