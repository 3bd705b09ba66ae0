package eventbus

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/internal/telemetry"
)

// Bus is the priority pub/sub dispatcher. A single goroutine drains the
// queue; publishing is safe from any goroutine.
type Bus struct {
	logger *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	queue    pqueue
	closed   bool
	seq      atomic.Int64
	handlers map[string][]Handler
	handlersMu sync.RWMutex

	highWaterMark int
	criticalWait  time.Duration
}

// New creates a Bus and starts its dispatcher goroutine, stopping when ctx
// is cancelled.
func New(ctx context.Context, logger *slog.Logger, highWaterMark int, criticalWait time.Duration) *Bus {
	b := &Bus{
		logger:        logger,
		handlers:      make(map[string][]Handler),
		highWaterMark: highWaterMark,
		criticalWait:  criticalWait,
	}
	b.cond = sync.NewCond(&b.mu)
	go b.dispatchLoop(ctx)
	return b
}

// Subscribe registers handler for topic.
func (b *Bus) Subscribe(topic string, handler Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish enqueues ev. Non-critical publishes beyond the high-water mark
// are dropped with a counter increment; critical publishes wait up to
// criticalWait for room before failing (spec.md §4.6 Backpressure). For
// critical events, Publish additionally blocks until every handler has
// run (spec.md §4.6 Delivery).
func (b *Bus) Publish(ev Event) error {
	if ev.PublishedAt.IsZero() {
		ev.PublishedAt = time.Now()
	}
	ev.seq = b.seq.Add(1)

	if !ev.IsCritical() {
		b.mu.Lock()
		if b.queue.Len() >= b.highWaterMark {
			b.mu.Unlock()
			telemetry.EventBusDroppedTotal.WithLabelValues(ev.Topic).Inc()
			return apperr.New(apperr.KindUnavailable, "eventbus.publish", "queue at high-water mark, event dropped")
		}
		heap.Push(&b.queue, ev)
		b.mu.Unlock()
		b.cond.Signal()
		return nil
	}

	done := make(chan struct{})
	ev.Payload = criticalEnvelope{inner: ev.Payload, done: done}

	deadline := time.Now().Add(b.criticalWait)
	poll := time.NewTicker(time.Millisecond)
	defer poll.Stop()
	for {
		b.mu.Lock()
		if b.queue.Len() < b.highWaterMark {
			heap.Push(&b.queue, ev)
			b.mu.Unlock()
			b.cond.Signal()
			break
		}
		b.mu.Unlock()
		if time.Now().After(deadline) {
			return apperr.New(apperr.KindTimeout, "eventbus.publish", "critical publish timed out waiting for queue room")
		}
		<-poll.C
	}

	select {
	case <-done:
		return nil
	case <-time.After(time.Until(deadline)):
		return apperr.New(apperr.KindTimeout, "eventbus.publish", "critical event handlers did not complete in time")
	}
}

// criticalEnvelope carries the original payload plus a completion signal
// so Publish can block until every handler for a critical event returns.
type criticalEnvelope struct {
	inner any
	done  chan struct{}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		b.cond.Broadcast()
	}()

	for {
		b.mu.Lock()
		for b.queue.Len() == 0 && !b.closed {
			b.cond.Wait()
		}
		if b.queue.Len() == 0 && b.closed {
			b.mu.Unlock()
			return
		}
		ev := heap.Pop(&b.queue).(Event)
		b.mu.Unlock()
		b.cond.Signal() // wake any critical publisher waiting for room

		b.deliver(ev)
	}
}

func (b *Bus) deliver(ev Event) {
	envelope, critical := ev.Payload.(criticalEnvelope)
	if critical {
		ev.Payload = envelope.inner
	}

	b.handlersMu.RLock()
	handlers := append([]Handler(nil), b.handlers[ev.Topic]...)
	b.handlersMu.RUnlock()

	run := func(h Handler) {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("event handler panicked", "topic", ev.Topic, "recovered", r)
			}
		}()
		h(ev)
	}

	if critical {
		var wg sync.WaitGroup
		for _, h := range handlers {
			wg.Add(1)
			go func(h Handler) {
				defer wg.Done()
				run(h)
			}(h)
		}
		wg.Wait()
		close(envelope.done)
		return
	}

	for _, h := range handlers {
		go run(h)
	}
}
