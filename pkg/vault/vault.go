// Package vault implements the Credential Vault (spec.md §4.1): encrypted
// secret storage with auto-redaction, keyed uniquely by name.
package vault

import (
	"time"

	"github.com/google/uuid"
)

// CredentialType enumerates the kinds of credential the vault accepts.
type CredentialType string

const (
	TypeStandard   CredentialType = "standard"
	TypeDatabase   CredentialType = "database"
	TypeUserDefined CredentialType = "user-defined"
)

// Metadata tracks lifecycle timestamps and the auto-redact flag.
type Metadata struct {
	Created    time.Time
	RotatedAt  time.Time
	AutoRedact bool
}

// Credential is the public shape of a stored secret. Ciphertext and the
// encryption nonce never leave the vault's decryption boundary except as
// opaque bytes persisted to disk.
type Credential struct {
	ID         uuid.UUID
	Name       string
	Type       CredentialType
	ciphertext []byte
	nonce      [nonceSize]byte
	Metadata   Metadata
	Schema     map[string]any // validation schema for user-defined types
}

// Schema describes the shape required of a user-defined credential's value,
// using github.com/go-playground/validator/v10 "dive"-style tag rules
// applied field by field (see validateSchema).
type Schema struct {
	Fields []SchemaField
}

// SchemaField names one required key in a user-defined credential payload
// and the validator.v10 tag used to check it.
type SchemaField struct {
	Key string
	Tag string // e.g. "required", "required,email", "required,hostname_port"
}
