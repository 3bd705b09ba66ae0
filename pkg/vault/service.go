package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// Vault is the Credential Vault (spec.md §4.1). All mutating operations take
// an exclusive lock; auto_redact reads a lock-free atomic snapshot of the
// redaction table (spec.md §5).
type Vault struct {
	mu         sync.RWMutex
	logger     *slog.Logger
	persister  Persister
	key        []byte
	iterations int

	creds       map[string]*Credential // name -> credential
	quarantined map[string]bool
	redaction   atomic.Pointer[map[string]string] // plaintext -> "***name***"
	validate    *validator.Validate
	currentSalt []byte
}

// Open derives the vault's encryption key from the keystore entry and loads
// any previously persisted image. It fails closed (apperr.KindKeystoreUnavailable)
// if the keystore entry is absent — the vault never silently generates a key
// that could not later decrypt existing data.
func Open(ks Keystore, entry string, iterations int, persister Persister, logger *slog.Logger) (*Vault, error) {
	root, err := ks.Get(entry)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindKeystoreUnavailable, "vault.open", fmt.Sprintf("reading keystore entry %q", entry), err)
	}

	img, err := persister.Load()
	if err != nil {
		return nil, err
	}

	var salt []byte
	if img != nil {
		salt = img.Salt
	} else {
		salt, err = newSalt()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindCryptoError, "vault.open", "generating salt", err)
		}
	}

	v := &Vault{
		logger:      logger,
		persister:   persister,
		key:         deriveKey(root, salt, iterations),
		iterations:  iterations,
		creds:       make(map[string]*Credential),
		quarantined: make(map[string]bool),
		validate:    validator.New(),
	}
	empty := map[string]string{}
	v.redaction.Store(&empty)

	if img != nil {
		for i := range img.Records {
			r := &img.Records[i]
			cred := &Credential{
				ID:   r.ID,
				Name: r.Name,
				Type: r.Type,
				Metadata: Metadata{
					Created:    r.Created,
					RotatedAt:  r.RotatedAt,
					AutoRedact: r.AutoRedact,
				},
				Schema: r.Schema,
			}
			cred.ciphertext = r.Ciphertext
			cred.nonce = r.Nonce
			v.creds[r.Name] = cred
			if r.Quarantined {
				v.quarantined[r.Name] = true
			}
		}
		v.rebuildRedactionLocked()
	}
	v.currentSalt = salt

	return v, nil
}

func (v *Vault) saveLocked() error {
	records := make([]record, 0, len(v.creds))
	for _, c := range v.creds {
		records = append(records, record{
			ID:          c.ID,
			Name:        c.Name,
			Type:        c.Type,
			Ciphertext:  c.ciphertext,
			Nonce:       c.nonce,
			Created:     c.Metadata.Created,
			RotatedAt:   c.Metadata.RotatedAt,
			AutoRedact:  c.Metadata.AutoRedact,
			Quarantined: v.quarantined[c.Name],
			Schema:      c.Schema,
		})
	}
	return v.persister.Save(&fileImage{Salt: v.currentSalt, Records: records})
}

// Store encrypts value and persists it under name. AutoRedact defaults to
// true for standard/database credentials (the common case per spec.md §4.1:
// "the redaction table always contains the plaintext of every credential
// whose auto_redact flag is set").
func (v *Vault) Store(name, value string, typ CredentialType, schema *Schema) error {
	return v.store(name, value, typ, schema, true)
}

// StoreWithRedact is Store with explicit control over the auto_redact flag.
func (v *Vault) StoreWithRedact(name, value string, typ CredentialType, schema *Schema, autoRedact bool) error {
	return v.store(name, value, typ, schema, autoRedact)
}

func (v *Vault) store(name, value string, typ CredentialType, schema *Schema, autoRedact bool) error {
	if name == "" {
		return apperr.New(apperr.KindInvalidInput, "vault.store", "name must not be empty")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.creds[name]; exists {
		return apperr.New(apperr.KindDuplicateName, "vault.store", fmt.Sprintf("credential %q already exists", name))
	}

	var schemaMap map[string]any
	if typ == TypeUserDefined && schema != nil {
		if err := validateSchema(v.validate, schema, value); err != nil {
			return apperr.Wrap(apperr.KindSchemaViolation, "vault.store", "value does not satisfy schema", err)
		}
		schemaMap = schemaFieldsToMap(schema)
	}

	ciphertext, nonce, err := seal(v.key, []byte(value))
	if err != nil {
		return err
	}

	cred := &Credential{
		ID:   uuid.New(),
		Name: name,
		Type: typ,
		Metadata: Metadata{
			Created:    time.Now(),
			AutoRedact: autoRedact,
		},
		Schema: schemaMap,
	}
	cred.ciphertext = ciphertext
	cred.nonce = nonce

	v.creds[name] = cred
	v.rebuildRedactionLocked()

	return v.saveLocked()
}

// Retrieve decrypts and returns the credential's plaintext. When anonymise
// is true, a stable opaque token is returned instead; ResolveToken reverses
// it within the same process (spec.md §4.1, §4.5).
func (v *Vault) Retrieve(name string, anonymise bool) (string, error) {
	v.mu.RLock()
	cred, ok := v.creds[name]
	quarantined := v.quarantined[name]
	v.mu.RUnlock()

	if !ok {
		return "", apperr.New(apperr.KindNotFound, "vault.retrieve", fmt.Sprintf("credential %q not found", name))
	}
	if quarantined {
		return "", apperr.New(apperr.KindCryptoError, "vault.retrieve", fmt.Sprintf("credential %q is quarantined", name))
	}

	plaintext, err := open(v.key, cred.nonce, cred.ciphertext)
	if err != nil {
		v.quarantine(name)
		return "", err
	}

	if anonymise {
		return vaultToken(cred.ID), nil
	}
	return string(plaintext), nil
}

// ResolveToken reverses a token produced by Retrieve(name, true) back to
// plaintext, for use inside the process only (e.g. by the LLM Manager after
// a model response references the token).
func (v *Vault) ResolveToken(token string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for name, cred := range v.creds {
		if vaultToken(cred.ID) == token {
			if v.quarantined[name] {
				return "", false
			}
			plaintext, err := open(v.key, cred.nonce, cred.ciphertext)
			if err != nil {
				return "", false
			}
			return string(plaintext), true
		}
	}
	return "", false
}

func vaultToken(id uuid.UUID) string {
	sum := sha256.Sum256(id[:])
	return "vault_tok_" + hex.EncodeToString(sum[:8])
}

// Delete removes a credential. Deleting a missing name returns NotFound
// without side effects (spec.md §8 idempotence).
func (v *Vault) Delete(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.creds[name]; !ok {
		return apperr.New(apperr.KindNotFound, "vault.delete", fmt.Sprintf("credential %q not found", name))
	}
	delete(v.creds, name)
	delete(v.quarantined, name)
	v.rebuildRedactionLocked()
	return v.saveLocked()
}

// Rotate re-encrypts a credential's plaintext under a fresh nonce and the
// current key, preserving ID (spec.md §4.1).
func (v *Vault) Rotate(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	cred, ok := v.creds[name]
	if !ok {
		return apperr.New(apperr.KindNotFound, "vault.rotate", fmt.Sprintf("credential %q not found", name))
	}

	plaintext, err := open(v.key, cred.nonce, cred.ciphertext)
	if err != nil {
		v.quarantined[name] = true
		return err
	}

	ciphertext, nonce, err := seal(v.key, plaintext)
	if err != nil {
		return err
	}
	cred.ciphertext = ciphertext
	cred.nonce = nonce
	cred.Metadata.RotatedAt = time.Now()

	return v.saveLocked()
}

// Names returns every stored credential name, for the Intelligent
// Completer's "$vault." prefix completion (values are never exposed here).
func (v *Vault) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.creds))
	for name := range v.creds {
		names = append(names, name)
	}
	return names
}

// AutoRedact substitutes every stored plaintext (whose auto_redact flag is
// set) appearing as a whole token in text with "***<name>***". It reads a
// lock-free snapshot of the redaction table (spec.md §5).
func (v *Vault) AutoRedact(text string) string {
	table := *v.redaction.Load()
	return redactWholeTokens(text, table)
}

func (v *Vault) quarantine(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.quarantined[name] = true
	v.rebuildRedactionLocked()
	_ = v.saveLocked()
}

// rebuildRedactionLocked recomputes the plaintext->placeholder table. Must
// be called with v.mu held for writing.
func (v *Vault) rebuildRedactionLocked() {
	table := make(map[string]string, len(v.creds))
	for name, cred := range v.creds {
		if !cred.Metadata.AutoRedact || v.quarantined[name] {
			continue
		}
		plaintext, err := open(v.key, cred.nonce, cred.ciphertext)
		if err != nil {
			continue
		}
		table[string(plaintext)] = "***" + name + "***"
	}
	v.redaction.Store(&table)
}
