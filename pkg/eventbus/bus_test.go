package eventbus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testBus(t *testing.T, hwm int) (*Bus, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	b := New(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), hwm, 200*time.Millisecond)
	return b, cancel
}

func TestPublish_DeliversToSubscriber(t *testing.T) {
	b, cancel := testBus(t, 16)
	defer cancel()

	received := make(chan Event, 1)
	b.Subscribe("panel.update", func(ev Event) { received <- ev })

	if err := b.Publish(Event{Topic: "panel.update", Priority: PriorityLow, Payload: "hello"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case ev := <-received:
		if ev.Payload != "hello" {
			t.Errorf("Payload = %v, want %q", ev.Payload, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestPublish_OrdersByPriorityThenFIFO(t *testing.T) {
	b, cancel := testBus(t, 16)
	defer cancel()

	var mu sync.Mutex
	var order []string
	all := make(chan struct{})
	count := 0

	b.Subscribe("t", func(ev Event) {
		mu.Lock()
		order = append(order, ev.Payload.(string))
		count++
		if count == 4 {
			close(all)
		}
		mu.Unlock()
	})

	_ = b.Publish(Event{Topic: "t", Priority: PriorityLow, Payload: "low-1"})
	_ = b.Publish(Event{Topic: "t", Priority: PriorityHigh, Payload: "high-1"})
	_ = b.Publish(Event{Topic: "t", Priority: PriorityLow, Payload: "low-2"})
	_ = b.Publish(Event{Topic: "t", Priority: PriorityHigh, Payload: "high-2"})

	select {
	case <-all:
	case <-time.After(time.Second):
		t.Fatal("not all events delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"high-1", "high-2", "low-1", "low-2"}
	for i, w := range want {
		if order[i] != w {
			t.Errorf("order[%d] = %q, want %q (full order: %v)", i, order[i], w, order)
		}
	}
}

func TestPublish_NonCriticalDroppedAtHighWaterMark(t *testing.T) {
	b, cancel := testBus(t, 1)
	defer cancel()

	// Block the dispatcher so the queue stays full while we publish.
	blocked := make(chan struct{})
	release := make(chan struct{})
	b.Subscribe("slow", func(ev Event) {
		close(blocked)
		<-release
	})

	_ = b.Publish(Event{Topic: "slow", Priority: PriorityLow})
	<-blocked // dispatcher is now inside the slow handler, queue is empty again...

	// Fill the queue back up, then push past the high-water mark.
	_ = b.Publish(Event{Topic: "slow", Priority: PriorityLow})
	err := b.Publish(Event{Topic: "slow", Priority: PriorityLow})
	if err == nil {
		t.Fatal("expected publish beyond high-water mark to be dropped")
	}
	close(release)
}

func TestPublish_CriticalWaitsForHandlers(t *testing.T) {
	b, cancel := testBus(t, 16)
	defer cancel()

	var handled int32
	var mu sync.Mutex
	b.Subscribe("confirmation.required", func(ev Event) {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		handled++
		mu.Unlock()
	})

	if err := b.Publish(Event{Topic: "confirmation.required", Priority: PriorityCritical}); err != nil {
		t.Fatalf("Publish(critical) error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if handled != 1 {
		t.Errorf("handled = %d, want 1 (Publish should block until handler completes)", handled)
	}
}

func TestSubscribe_PanicIsRecovered(t *testing.T) {
	b, cancel := testBus(t, 16)
	defer cancel()

	done := make(chan struct{})
	b.Subscribe("panic-topic", func(ev Event) {
		defer close(done)
		panic("boom")
	})

	if err := b.Publish(Event{Topic: "panic-topic", Priority: PriorityLow}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}
