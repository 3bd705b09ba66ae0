package enrichment

import (
	"context"
	"testing"
	"time"
)

func TestBoundedQueue_EvictsOldestLowestPriorityOnOverflow(t *testing.T) {
	q := newBoundedQueue(2)
	base := time.Now()

	// Priority follows the eventbus convention: a lower number is more
	// urgent. "a" (1) is the most urgent entry, "b" (5) the least.
	q.TryPut(Request{SessionScope: "a", Priority: 1, SubmittedAt: base})
	q.TryPut(Request{SessionScope: "b", Priority: 5, SubmittedAt: base.Add(time.Millisecond)})
	// Queue full at capacity 2; "b" has the lowest priority and should be evicted.
	q.TryPut(Request{SessionScope: "c", Priority: 3, SubmittedAt: base.Add(2 * time.Millisecond)})

	var scopes []string
	for {
		r, ok := q.TryTake()
		if !ok {
			break
		}
		scopes = append(scopes, r.SessionScope)
	}

	if len(scopes) != 2 {
		t.Fatalf("len(scopes) = %d, want 2", len(scopes))
	}
	for _, s := range scopes {
		if s == "b" {
			t.Errorf("expected lowest-priority entry %q to be evicted, scopes = %v", "b", scopes)
		}
	}
}

func TestBoundedQueue_TryTakeReturnsOldestFirst(t *testing.T) {
	q := newBoundedQueue(4)
	base := time.Now()
	q.TryPut(Request{SessionScope: "second", SubmittedAt: base.Add(time.Millisecond)})
	q.TryPut(Request{SessionScope: "first", SubmittedAt: base})

	r, ok := q.TryTake()
	if !ok || r.SessionScope != "first" {
		t.Errorf("TryTake() = %+v, want session scope %q first", r, "first")
	}
}

func TestPipeline_SkipsStaleRequest(t *testing.T) {
	p := New(nil, nil, nil, nil, 8, 10*time.Millisecond, 50*time.Millisecond)
	req := Request{SessionScope: "s", SubmittedAt: time.Now().Add(-time.Second)}
	if !p.isStaleOrSuperseded(req) {
		t.Error("expected an old request to be classified stale")
	}
}

func TestPipeline_SkipsSupersededRequest(t *testing.T) {
	p := New(nil, nil, nil, nil, 8, time.Minute, 50*time.Millisecond)
	old := Request{SessionScope: "s", SubmittedAt: time.Now()}
	p.mu.Lock()
	p.lastSeen["s"] = time.Now().Add(time.Millisecond)
	p.mu.Unlock()

	if !p.isStaleOrSuperseded(old) {
		t.Error("expected a superseded request to be skipped")
	}
}

func TestPipeline_RunGatherers_PartialResultsOnTimeout(t *testing.T) {
	fast := func(ctx context.Context, req Request) (string, any) { return "fast", 1 }
	slow := func(ctx context.Context, req Request) (string, any) {
		select {
		case <-time.After(time.Second):
			return "slow", 2
		case <-ctx.Done():
			return "slow", nil
		}
	}

	p := New(nil, nil, nil, GathererSet{
		"other": {fast, slow},
	}, 8, time.Minute, 20*time.Millisecond)

	results := p.runGatherers(context.Background(), "other", Request{})
	if _, ok := results["fast"]; !ok {
		t.Error("expected fast gatherer's result to be present")
	}
	if _, ok := results["slow"]; ok {
		t.Error("expected slow gatherer's result to be omitted after timeout")
	}
}
