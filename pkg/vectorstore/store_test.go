package vectorstore

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func obj(name string, emb ...float64) CatalogObject {
	return CatalogObject{ID: uuid.New(), Kind: "table", Name: name, Embedding: emb}
}

func TestInsert_RejectsDimensionMismatch(t *testing.T) {
	s := New(3)
	if err := s.Insert(obj("users", 1, 2)); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after rejected insert", s.Len())
	}
}

func TestSearch_OrdersByIncreasingDistance(t *testing.T) {
	s := New(2)
	_ = s.Insert(obj("far", 10, 10))
	_ = s.Insert(obj("near", 1, 1))
	_ = s.Insert(obj("mid", 5, 5))

	matches, err := s.Search([]float64{0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
	want := []string{"near", "mid", "far"}
	for i, m := range matches {
		if m.Object.Name != want[i] {
			t.Errorf("matches[%d].Name = %q, want %q", i, m.Object.Name, want[i])
		}
	}
}

func TestSearch_TiesBreakByInsertionOrder(t *testing.T) {
	s := New(2)
	_ = s.Insert(obj("first", 1, 0))
	_ = s.Insert(obj("second", 0, 1))

	matches, err := s.Search([]float64{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if matches[0].Object.Name != "first" || matches[1].Object.Name != "second" {
		t.Errorf("tie-break order = [%s, %s], want [first, second]", matches[0].Object.Name, matches[1].Object.Name)
	}
}

func TestSearch_RejectsDimensionMismatch(t *testing.T) {
	s := New(3)
	if _, err := s.Search([]float64{1, 2}, 1); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := New(2)
	_ = s.Insert(obj("users", 1, 2))
	_ = s.Insert(obj("orders", 3, 4))

	path := filepath.Join(t.TempDir(), "snapshot.gob")
	if err := s.SaveSnapshot(path); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	reloaded, err := LoadSnapshot(path, 2)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("Len() after reload = %d, want 2", reloaded.Len())
	}
}

func TestSnapshot_FailsClosedOnDimensionMismatch(t *testing.T) {
	s := New(2)
	_ = s.Insert(obj("users", 1, 2))

	path := filepath.Join(t.TempDir(), "snapshot.gob")
	if err := s.SaveSnapshot(path); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	if _, err := LoadSnapshot(path, 5); err == nil {
		t.Fatal("expected LoadSnapshot to fail closed on dimension mismatch")
	}
}
