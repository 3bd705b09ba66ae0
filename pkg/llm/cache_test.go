package llm

import "testing"

func TestEmbeddingCache_HitAndEviction(t *testing.T) {
	c := newEmbeddingCache(2)
	c.put("a", []float64{1})
	c.put("b", []float64{2})

	if _, ok := c.get("a"); !ok {
		t.Fatal("expected a to be cached")
	}

	// "a" is now most-recently-used; adding "c" should evict "b".
	c.put("c", []float64{3})

	if _, ok := c.get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("expected c to be cached")
	}
}
