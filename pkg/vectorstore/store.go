// Package vectorstore implements the Vector Store (spec.md §4.4): an
// L2-nearest-neighbour index over catalog object embeddings.
package vectorstore

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// CatalogObject is one indexed entity: a table, column, command pattern,
// or other completion/enrichment candidate, plus its embedding.
type CatalogObject struct {
	ID        uuid.UUID
	Kind      string // "table", "column", "command", ...
	Name      string
	Embedding []float64
}

// Match is one search hit.
type Match struct {
	Object     CatalogObject
	Similarity float64
}

// Store holds a fixed-dimension embedding index plus its metadata, aligned
// by position. Dimension D is fixed at construction.
type Store struct {
	mu      sync.RWMutex
	dim     int
	objects []CatalogObject
}

// New creates an empty Store with a fixed embedding dimension.
func New(dim int) *Store {
	return &Store{dim: dim}
}

// Dimension returns the fixed embedding dimension this store was built with.
func (s *Store) Dimension() int { return s.dim }

// Insert adds a CatalogObject. Writers take an exclusive lock; a dimension
// mismatch fails without mutating the index.
func (s *Store) Insert(obj CatalogObject) error {
	if len(obj.Embedding) != s.dim {
		return apperr.New(apperr.KindDimensionMismatch, "vectorstore.insert",
			"embedding dimension does not match store dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, obj)
	return nil
}

// Rebuild atomically replaces the entire index, for bulk catalog refreshes.
// Any object whose embedding dimension mismatches causes the whole rebuild
// to fail, leaving the previous index untouched.
func (s *Store) Rebuild(objects []CatalogObject) error {
	for _, o := range objects {
		if len(o.Embedding) != s.dim {
			return apperr.New(apperr.KindDimensionMismatch, "vectorstore.rebuild",
				"embedding dimension does not match store dimension")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append([]CatalogObject(nil), objects...)
	return nil
}

// Search returns the k nearest objects to embedding by L2 distance,
// converted to a similarity score of 1/(1+distance). Ties break by earlier
// insertion (stable sort preserves original index order).
func (s *Store) Search(embedding []float64, k int) ([]Match, error) {
	if len(embedding) != s.dim {
		return nil, apperr.New(apperr.KindDimensionMismatch, "vectorstore.search",
			"query embedding dimension does not match store dimension")
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, len(s.objects))
	for i, obj := range s.objects {
		dist := l2Distance(embedding, obj.Embedding)
		matches[i] = Match{Object: obj, Similarity: 1 / (1 + dist)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Len returns the number of indexed objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func l2Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
