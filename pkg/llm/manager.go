package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wisbric/ai-shell/pkg/eventbus"
)

// Manager is the LLM Manager (spec.md §4.5): routes each logical function
// to its configured provider, retries transient failures with exponential
// backoff, and falls back to degraded mode rather than ever propagating a
// provider error to the keystroke loop.
type Manager struct {
	registry      *Registry
	bus           *eventbus.Bus
	logger        *slog.Logger
	cache         *embeddingCache
	retryCeiling  int
	deadline      time.Duration
}

// NewManager builds a Manager. bus may be nil in tests that don't care
// about llm.error events.
func NewManager(registry *Registry, bus *eventbus.Bus, logger *slog.Logger, retryCeiling int, deadline time.Duration, cacheCapacity int) *Manager {
	if retryCeiling <= 0 {
		retryCeiling = 3
	}
	return &Manager{
		registry:     registry,
		bus:          bus,
		logger:       logger,
		cache:        newEmbeddingCache(cacheCapacity),
		retryCeiling: retryCeiling,
		deadline:     deadline,
	}
}

// AnalyzeIntent calls the routed provider's AnalyzeIntent with retry and
// backoff, falling back to the rule-based heuristic on exhaustion.
func (m *Manager) AnalyzeIntent(ctx context.Context, text string, c Context) IntentResult {
	if strings.TrimSpace(text) == "" {
		return IntentResult{PrimaryIntent: IntentOther, Confidence: 0}
	}

	result, err := withRetry(ctx, m.retryCeiling, m.deadline, func(ctx context.Context) (IntentResult, error) {
		p, err := m.registry.ProviderFor("analyze_intent")
		if err != nil {
			return IntentResult{}, err
		}
		return p.AnalyzeIntent(ctx, text, c)
	})
	if err != nil {
		m.reportError("analyze_intent", err)
		return RuleBasedIntent(text)
	}
	return result
}

// Complete calls the routed provider's Complete with retry and backoff,
// returning an empty string in degraded mode on exhaustion (spec.md §4.5:
// "falls back to degraded mode ... empty completion list").
func (m *Manager) Complete(ctx context.Context, prompt string) string {
	result, err := withRetry(ctx, m.retryCeiling, m.deadline, func(ctx context.Context) (string, error) {
		p, err := m.registry.ProviderFor("complete")
		if err != nil {
			return "", err
		}
		return p.Complete(ctx, prompt)
	})
	if err != nil {
		m.reportError("complete", err)
		return ""
	}
	return result
}

// Embed returns a cached embedding if present, otherwise calls the routed
// provider with retry/backoff and caches the result.
func (m *Manager) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := m.cache.get(text); ok {
		return v, nil
	}

	result, err := withRetry(ctx, m.retryCeiling, m.deadline, func(ctx context.Context) ([]float64, error) {
		p, err := m.registry.ProviderFor("embed")
		if err != nil {
			return nil, err
		}
		return p.Embed(ctx, text)
	})
	if err != nil {
		m.reportError("embed", err)
		return nil, err
	}
	m.cache.put(text, result)
	return result, nil
}

// Anonymise and Deanonymise are pure functions (pseudonymize.go); exposed
// here too so callers only need a *Manager handle.
func (m *Manager) Anonymise(text string) (string, map[string]string) { return Anonymise(text) }
func (m *Manager) Deanonymise(text string, tokenMap map[string]string) string {
	return Deanonymise(text, tokenMap)
}

func (m *Manager) reportError(function string, err error) {
	if m.logger != nil {
		m.logger.Warn("llm provider call failed, falling back to degraded mode", "function", function, "error", err)
	}
	if m.bus == nil {
		return
	}
	_ = m.bus.Publish(eventbus.Event{
		Topic:    "llm.error",
		Priority: eventbus.PriorityLow,
		Payload:  map[string]string{"function": function, "error": err.Error()},
	})
}

// withRetry calls fn up to ceiling times with exponential backoff (base
// 100ms, doubling), stopping early on context cancellation.
func withRetry[T any](ctx context.Context, ceiling int, perCallDeadline time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt < ceiling; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if perCallDeadline > 0 {
			callCtx, cancel = context.WithTimeout(ctx, perCallDeadline)
		}
		result, err := fn(callCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if attempt < ceiling-1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			backoff *= 2
		}
	}
	return zero, lastErr
}
