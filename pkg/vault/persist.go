package vault

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// record is the on-disk representation of a single credential. Only
// ciphertext and metadata are persisted; plaintext never touches disk.
type record struct {
	ID          uuid.UUID
	Name        string
	Type        CredentialType
	Ciphertext  []byte
	Nonce       [nonceSize]byte
	Created     time.Time
	RotatedAt   time.Time
	AutoRedact  bool
	Quarantined bool
	Schema      map[string]any
}

// fileImage is the full serialized vault: the salt used for key derivation
// plus every credential record, matching the single-per-user-directory
// layout in spec.md §6 ("the vault ciphertext file").
type fileImage struct {
	Salt    []byte
	Records []record
}

// Persister loads and saves the vault's encrypted image. The default
// implementation is a single gob-encoded file with owner-only permissions;
// callers may substitute any implementation (e.g. for tests).
type Persister interface {
	Load() (*fileImage, error) // returns (nil, nil) if no image exists yet
	Save(*fileImage) error
}

// filePersister persists the vault to a single file on disk.
type filePersister struct {
	path string
}

// NewFilePersister creates a Persister backed by the file at path. The
// parent directory is created with 0700 permissions if missing.
func NewFilePersister(path string) Persister {
	return &filePersister{path: path}
}

func (p *filePersister) Load() (*fileImage, error) {
	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "vault.load", "opening vault file", err)
	}
	defer f.Close()

	var img fileImage
	if err := gob.NewDecoder(f).Decode(&img); err != nil {
		return nil, apperr.Wrap(apperr.KindCryptoError, "vault.load", "decoding vault file", err)
	}
	return &img, nil
}

func (p *filePersister) Save(img *fileImage) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "vault.save", "creating state directory", err)
	}

	tmp := p.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "vault.save", "opening temp vault file", err)
	}
	if err := gob.NewEncoder(f).Encode(img); err != nil {
		f.Close()
		return apperr.Wrap(apperr.KindCryptoError, "vault.save", "encoding vault file", err)
	}
	if err := f.Close(); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "vault.save", "closing temp vault file", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "vault.save", "renaming vault file into place", err)
	}
	return nil
}
