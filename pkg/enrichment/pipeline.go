package enrichment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wisbric/ai-shell/internal/telemetry"
	"github.com/wisbric/ai-shell/pkg/eventbus"
	"github.com/wisbric/ai-shell/pkg/llm"
)

// GathererSet maps a primary intent to the bounded fan-out of gatherers
// run for it (spec.md §4.7 step 3).
type GathererSet map[llm.Intent][]Gatherer

// Pipeline is the long-running, single-consumer Enrichment Pipeline.
type Pipeline struct {
	queue           *boundedQueue
	manager         *llm.Manager
	bus             *eventbus.Bus
	logger          *slog.Logger
	gatherers       GathererSet
	stalenessWindow time.Duration
	gathererDeadline time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time // session scope -> most recent SubmittedAt observed
}

// New creates a Pipeline. Call Submit to enqueue work and Run to start
// consuming (Run blocks until ctx is cancelled).
func New(manager *llm.Manager, bus *eventbus.Bus, logger *slog.Logger, gatherers GathererSet, queueCap int, stalenessWindow, gathererDeadline time.Duration) *Pipeline {
	return &Pipeline{
		queue:            newBoundedQueue(queueCap),
		manager:          manager,
		bus:              bus,
		logger:           logger,
		gatherers:        gatherers,
		stalenessWindow:  stalenessWindow,
		gathererDeadline: gathererDeadline,
		lastSeen:         make(map[string]time.Time),
	}
}

// Submit enqueues req without blocking the keystroke producer.
func (p *Pipeline) Submit(req Request) {
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}
	p.mu.Lock()
	if req.SubmittedAt.After(p.lastSeen[req.SessionScope]) {
		p.lastSeen[req.SessionScope] = req.SubmittedAt
	}
	p.mu.Unlock()
	p.queue.TryPut(req)
}

// Run drains the queue until ctx is cancelled, implementing the algorithm
// of spec.md §4.7 steps 1-6.
func (p *Pipeline) Run(ctx context.Context) {
	poll := time.NewTicker(5 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			req, ok := p.queue.TryTake()
			if !ok {
				continue
			}
			p.process(ctx, req)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, req Request) {
	if p.isStaleOrSuperseded(req) {
		telemetry.EnrichmentSkippedTotal.Inc()
		return
	}

	intent := p.manager.AnalyzeIntent(ctx, req.UserInput, req.Context)

	results := p.runGatherers(ctx, intent.PrimaryIntent, req)

	if p.isStaleOrSuperseded(req) {
		telemetry.EnrichmentSkippedTotal.Inc()
		return
	}

	_ = p.bus.Publish(eventbus.Event{
		Topic:    "panel.update",
		Priority: eventbus.PriorityLow,
		Payload: PanelUpdate{
			SessionScope: req.SessionScope,
			Intent:       intent,
			Context:      results,
		},
	})
}

// isStaleOrSuperseded implements step 1: age beyond the staleness window,
// or a newer request with the same session scope observed since req was
// enqueued.
func (p *Pipeline) isStaleOrSuperseded(req Request) bool {
	if time.Since(req.SubmittedAt) > p.stalenessWindow {
		return true
	}
	p.mu.Lock()
	newest := p.lastSeen[req.SessionScope]
	p.mu.Unlock()
	return newest.After(req.SubmittedAt)
}

// runGatherers runs the bounded fan-out for intent in parallel with a
// per-gatherer deadline. Partial results are acceptable; a gatherer
// timeout does not fail the request (spec.md §4.7 step 4).
func (p *Pipeline) runGatherers(ctx context.Context, intent llm.Intent, req Request) map[string]any {
	gatherers := p.gatherers[intent]
	results := make(map[string]any)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, gatherer := range gatherers {
		gatherer := gatherer
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, p.gathererDeadline)
			defer cancel()

			done := make(chan struct{})
			var key string
			var val any
			go func() {
				key, val = gatherer(callCtx, req)
				close(done)
			}()

			select {
			case <-done:
				mu.Lock()
				results[key] = val
				mu.Unlock()
			case <-callCtx.Done():
				// Timed out: omit this gatherer's contribution silently.
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// PanelUpdate is the payload of a panel.update event.
type PanelUpdate struct {
	SessionScope string
	Intent       llm.IntentResult
	Context      map[string]any
}
