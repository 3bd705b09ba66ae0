package vectorstore

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/wisbric/ai-shell/internal/apperr"
)

type snapshot struct {
	Dimension int
	Objects   []CatalogObject
}

// SaveSnapshot writes the store's current contents to path.
func (s *Store) SaveSnapshot(path string) error {
	s.mu.RLock()
	snap := snapshot{Dimension: s.dim, Objects: append([]CatalogObject(nil), s.objects...)}
	s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "vectorstore.save_snapshot", "creating state directory", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "vectorstore.save_snapshot", "opening temp file", err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		return apperr.Wrap(apperr.KindUnavailable, "vectorstore.save_snapshot", "encoding snapshot", err)
	}
	if err := f.Close(); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "vectorstore.save_snapshot", "closing temp file", err)
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot loads a previously saved snapshot into a new Store. A
// dimension mismatch between the snapshot and the current embedding model
// (expectedDim) must fail closed rather than silently truncate or pad
// vectors (spec.md §4.4).
func LoadSnapshot(path string, expectedDim int) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(expectedDim), nil
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "vectorstore.load_snapshot", "opening snapshot file", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "vectorstore.load_snapshot", "decoding snapshot", err)
	}
	if snap.Dimension != expectedDim {
		return nil, apperr.New(apperr.KindDimensionMismatch, "vectorstore.load_snapshot",
			"snapshot embedding dimension does not match the current embedding model")
	}

	s := New(expectedDim)
	s.objects = snap.Objects
	return s, nil
}
