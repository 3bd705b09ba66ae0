package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type failingProvider struct {
	calls atomic.Int32
}

func (f *failingProvider) Name() string { return "failing" }
func (f *failingProvider) AnalyzeIntent(ctx context.Context, text string, c Context) (IntentResult, error) {
	f.calls.Add(1)
	return IntentResult{}, errors.New("provider unavailable")
}
func (f *failingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	return "", errors.New("provider unavailable")
}
func (f *failingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls.Add(1)
	return nil, errors.New("provider unavailable")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_AnalyzeIntent_FallsBackToRuleBasedAfterRetries(t *testing.T) {
	reg := NewRegistry()
	fp := &failingProvider{}
	reg.Register(fp)
	if err := reg.Route("analyze_intent", "failing"); err != nil {
		t.Fatalf("Route() error = %v", err)
	}

	m := NewManager(reg, nil, testLogger(), 2, 10*time.Millisecond, 16)

	result := m.AnalyzeIntent(context.Background(), "SELECT * FROM t", Context{})
	if result.PrimaryIntent != IntentDatabaseQuery {
		t.Errorf("PrimaryIntent = %v, want %v (rule-based fallback)", result.PrimaryIntent, IntentDatabaseQuery)
	}
	if fp.calls.Load() != 2 {
		t.Errorf("provider called %d times, want 2 (retry ceiling)", fp.calls.Load())
	}
}

func TestManager_Complete_DegradesToEmptyString(t *testing.T) {
	reg := NewRegistry()
	fp := &failingProvider{}
	reg.Register(fp)
	_ = reg.Route("complete", "failing")

	m := NewManager(reg, nil, testLogger(), 1, 10*time.Millisecond, 16)

	if got := m.Complete(context.Background(), "hello"); got != "" {
		t.Errorf("Complete() = %q, want empty string in degraded mode", got)
	}
}

type staticProvider struct{ embedding []float64 }

func (s *staticProvider) Name() string { return "static" }
func (s *staticProvider) AnalyzeIntent(ctx context.Context, text string, c Context) (IntentResult, error) {
	return IntentResult{}, nil
}
func (s *staticProvider) Complete(ctx context.Context, prompt string) (string, error) { return "", nil }
func (s *staticProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return s.embedding, nil
}

func TestManager_Embed_CachesAcrossCalls(t *testing.T) {
	reg := NewRegistry()
	sp := &staticProvider{embedding: []float64{1, 2, 3}}
	reg.Register(sp)
	_ = reg.Route("embed", "static")

	m := NewManager(reg, nil, testLogger(), 3, 0, 16)

	v1, err := m.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if _, ok := m.cache.get("hello"); !ok {
		t.Fatal("expected embedding to be cached after first call")
	}
	v2, err := m.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() second call error = %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("cached embedding mismatch: %v vs %v", v1, v2)
	}
}

func TestRegistry_RouteToUnregisteredProviderFails(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Route("complete", "nope"); err == nil {
		t.Fatal("expected error routing to an unregistered provider")
	}
}

func TestManager_AnalyzeIntent_EmptyInputIsOtherWithZeroConfidence(t *testing.T) {
	reg := NewRegistry()
	fp := &failingProvider{}
	reg.Register(fp)
	_ = reg.Route("analyze_intent", "failing")

	m := NewManager(reg, nil, testLogger(), 3, 10*time.Millisecond, 16)

	result := m.AnalyzeIntent(context.Background(), "", Context{})
	if result.PrimaryIntent != IntentOther || result.Confidence != 0 {
		t.Errorf("AnalyzeIntent(\"\") = %+v, want {other 0}", result)
	}
	if fp.calls.Load() != 0 {
		t.Errorf("provider called %d times for empty input, want 0 (should short-circuit)", fp.calls.Load())
	}
}
